package receiver

import "github.com/prometheus/client_golang/prometheus"

// collector adapts Receiver.Stats (and the accumulator's Stats) to the
// Prometheus collector interface. It is only built and registered when the
// caller supplies a prometheus.Registerer via WithPrometheus — the core has
// no hard dependency on a running Prometheus server.
type collector struct {
	r *Receiver

	datagramsReceived     *prometheus.Desc
	messagesDelivered     *prometheus.Desc
	classifyErrors        *prometheus.Desc
	decompressErrors      *prometheus.Desc
	invalidUTF8Errors     *prometheus.Desc
	chunkErrors           *prometheus.Desc
	activeDispatchWorkers *prometheus.Desc

	chunksAccepted    *prometheus.Desc
	duplicatesDropped *prometheus.Desc
	messagesCompleted *prometheus.Desc
	messagesExpired   *prometheus.Desc
	sequenceErrors    *prometheus.Desc
	reaperUnavailable *prometheus.Desc
}

func newCollector(r *Receiver) *collector {
	ns := "gelf_receiver"
	return &collector{
		r:                 r,
		datagramsReceived: prometheus.NewDesc(ns+"_datagrams_received_total", "Total UDP datagrams received.", nil, nil),
		messagesDelivered: prometheus.NewDesc(ns+"_messages_delivered_total", "Total complete GELF messages delivered to the handler.", nil, nil),
		classifyErrors:    prometheus.NewDesc(ns+"_classify_errors_total", "Datagrams rejected during magic-byte classification.", nil, nil),
		decompressErrors:  prometheus.NewDesc(ns+"_decompress_errors_total", "Datagrams rejected during gzip/zlib decompression.", nil, nil),
		invalidUTF8Errors: prometheus.NewDesc(ns+"_invalid_utf8_total", "Decompressed payloads rejected for invalid UTF-8.", nil, nil),
		chunkErrors:           prometheus.NewDesc(ns+"_chunk_errors_total", "Chunk datagrams rejected by the chunk parser or for an out-of-range sequence number.", nil, nil),
		activeDispatchWorkers: prometheus.NewDesc(ns+"_active_dispatch_workers", "Handler invocations currently in flight on the dispatch pool.", nil, nil),
		chunksAccepted:        prometheus.NewDesc(ns+"_chunks_accepted_total", "Chunk fragments accepted by the accumulator.", nil, nil),
		duplicatesDropped: prometheus.NewDesc(ns+"_duplicate_chunks_total", "Duplicate chunk fragments silently dropped.", nil, nil),
		messagesCompleted: prometheus.NewDesc(ns+"_chunked_messages_completed_total", "Chunked messages fully reassembled.", nil, nil),
		messagesExpired:   prometheus.NewDesc(ns+"_chunked_messages_expired_total", "Partial chunk sets evicted by the reaper after TTL.", nil, nil),
		sequenceErrors:    prometheus.NewDesc(ns+"_sequence_out_of_range_total", "Chunks rejected for a sequence_number outside 1..sequence_count.", nil, nil),
		reaperUnavailable: prometheus.NewDesc(ns+"_reaper_unavailable_total", "Accept calls that failed to signal the reaper.", nil, nil),
	}
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.datagramsReceived
	ch <- c.messagesDelivered
	ch <- c.classifyErrors
	ch <- c.decompressErrors
	ch <- c.invalidUTF8Errors
	ch <- c.chunkErrors
	ch <- c.activeDispatchWorkers
	ch <- c.chunksAccepted
	ch <- c.duplicatesDropped
	ch <- c.messagesCompleted
	ch <- c.messagesExpired
	ch <- c.sequenceErrors
	ch <- c.reaperUnavailable
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	rs := c.r.Stats()
	as := c.r.AccumulatorStats()

	ch <- prometheus.MustNewConstMetric(c.datagramsReceived, prometheus.CounterValue, float64(rs.DatagramsReceived))
	ch <- prometheus.MustNewConstMetric(c.messagesDelivered, prometheus.CounterValue, float64(rs.MessagesDelivered))
	ch <- prometheus.MustNewConstMetric(c.classifyErrors, prometheus.CounterValue, float64(rs.ClassifyErrors))
	ch <- prometheus.MustNewConstMetric(c.decompressErrors, prometheus.CounterValue, float64(rs.DecompressErrors))
	ch <- prometheus.MustNewConstMetric(c.invalidUTF8Errors, prometheus.CounterValue, float64(rs.InvalidUTF8Errors))
	ch <- prometheus.MustNewConstMetric(c.chunkErrors, prometheus.CounterValue, float64(rs.ChunkErrors))
	ch <- prometheus.MustNewConstMetric(c.activeDispatchWorkers, prometheus.GaugeValue, float64(rs.ActiveDispatchWorkers))

	ch <- prometheus.MustNewConstMetric(c.chunksAccepted, prometheus.CounterValue, float64(as.ChunksAccepted))
	ch <- prometheus.MustNewConstMetric(c.duplicatesDropped, prometheus.CounterValue, float64(as.DuplicatesDropped))
	ch <- prometheus.MustNewConstMetric(c.messagesCompleted, prometheus.CounterValue, float64(as.MessagesCompleted))
	ch <- prometheus.MustNewConstMetric(c.messagesExpired, prometheus.CounterValue, float64(as.MessagesExpired))
	ch <- prometheus.MustNewConstMetric(c.sequenceErrors, prometheus.CounterValue, float64(as.SequenceErrors))
	ch <- prometheus.MustNewConstMetric(c.reaperUnavailable, prometheus.CounterValue, float64(as.ReaperUnavailable))
}
