package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	BookingsCreated prometheus.Counter
	ImagesUploaded  prometheus.Counter
	UploadFailures  prometheus.Counter
	SignedLinks     *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BookingsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "studio_bookings_created_total",
			Help: "Total number of bookings created",
		}),
		ImagesUploaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "studio_images_uploaded_total",
			Help: "Total number of images fully committed",
		}),
		UploadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "studio_image_upload_failures_total",
			Help: "Total number of upload batches aborted by a failure",
		}),
		SignedLinks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studio_signed_links_total",
			Help: "Signed URL requests by cache outcome",
		}, []string{"outcome"}),
	}
}
