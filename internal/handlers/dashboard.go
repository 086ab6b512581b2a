package handlers

import (
	"net/http"

	"github.com/tqpictures/studio/internal/auth"
	"github.com/tqpictures/studio/models"
)

type imageView struct {
	models.Image
	URL      string
	ThumbURL string
}

type dashboardPage struct {
	basePage
	Bookings []models.Booking
	Images   []imageView
}

// Dashboard shows the customer's own bookings and only the images
// assigned to them, each with a one-hour signed link.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	p := auth.ProfileFrom(r.Context())

	bookings, err := h.bookings.ListForProfile(r.Context(), p.ID)
	if err != nil {
		h.internalError(w, err)
		return
	}
	images, err := h.gallery.Assigned(r.Context(), p.ID)
	if err != nil {
		h.internalError(w, err)
		return
	}

	views := make([]imageView, 0, len(images))
	for _, img := range images {
		v := imageView{Image: img}
		links, err := h.gallery.SignedLinks(r.Context(), img)
		if err != nil {
			// The image is still listed; its link simply fails to load.
			h.log.Error("signed link", "image_id", img.ID, "error", err)
		} else {
			v.URL = links.URL
			v.ThumbURL = links.ThumbURL
		}
		views = append(views, v)
	}

	h.render(w, http.StatusOK, "dashboard.html", dashboardPage{
		basePage: h.base(w, r),
		Bookings: bookings,
		Images:   views,
	})
}
