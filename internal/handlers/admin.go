package handlers

import (
	"io"
	"net/http"

	"github.com/tqpictures/studio/internal/auth"
	"github.com/tqpictures/studio/internal/gallery"
	"github.com/tqpictures/studio/models"
)

const (
	maxUploadBytes = 64 << 20
	recentBookings = 10
)

type adminPage struct {
	basePage
	ImageCount   int64
	UserCount    int
	PendingCount int64
	Customers    []models.Profile
	Bookings     []models.Booking
}

func (h *Handlers) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	imageCount, err := h.images.Count(ctx)
	if err != nil {
		h.internalError(w, err)
		return
	}
	customers, err := h.profiles.ListCustomers(ctx)
	if err != nil {
		h.internalError(w, err)
		return
	}
	pending, err := h.bookings.CountPending(ctx)
	if err != nil {
		h.internalError(w, err)
		return
	}
	bookings, err := h.bookings.ListRecent(ctx, recentBookings)
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.render(w, http.StatusOK, "admin.html", adminPage{
		basePage:     h.base(w, r),
		ImageCount:   imageCount,
		UserCount:    len(customers),
		PendingCount: pending,
		Customers:    customers,
		Bookings:     bookings,
	})
}

// AdminUpload runs the multi-file upload batch. Files are processed in
// order; the first failure aborts the batch, leaving earlier files
// committed and reporting one generic notice.
func (h *Handlers) AdminUpload(w http.ResponseWriter, r *http.Request) {
	p := auth.ProfileFrom(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.sessions.Flash(w, r, "Failed to upload images")
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	userIDs := r.Form["user_ids"]

	var files []gallery.UploadFile
	for _, fh := range r.MultipartForm.File["images"] {
		f, err := fh.Open()
		if err != nil {
			h.sessions.Flash(w, r, "Failed to upload images")
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.sessions.Flash(w, r, "Failed to upload images")
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
		files = append(files, gallery.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	if len(files) == 0 {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	committed, err := h.gallery.UploadBatch(r.Context(), p.ID, files, userIDs)
	for _, img := range committed {
		h.events.ImageUploaded(r.Context(), img)
	}
	if err != nil {
		h.log.Error("admin upload", "error", err, "committed", len(committed))
		h.sessions.Flash(w, r, "Failed to upload images")
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	h.sessions.Flash(w, r, "Images uploaded successfully!")
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}
