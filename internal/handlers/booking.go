package handlers

import (
	"net/http"
	"time"

	"github.com/tqpictures/studio/internal/auth"
	"github.com/tqpictures/studio/models"
)

type bookingForm struct {
	FullName string
	Email    string
	Phone    string
	Date     string
	Time     string
	Reason   string
}

type bookingPage struct {
	basePage
	Success bool
	Form    bookingForm
	MinDate string
}

func (h *Handlers) BookingForm(w http.ResponseWriter, r *http.Request) {
	page := bookingPage{basePage: h.base(w, r), MinDate: time.Now().Format("2006-01-02")}
	if p := page.Profile; p != nil {
		page.Form.FullName = p.FullName
		page.Form.Email = p.Email
		page.Form.Phone = p.Phone
	}
	h.render(w, http.StatusOK, "booking.html", page)
}

// BookingCreate inserts one pending booking for the signed-in profile,
// then renders the success view which navigates to the dashboard after a
// short delay. The route guard already bounced anonymous submissions to
// /login.
func (h *Handlers) BookingCreate(w http.ResponseWriter, r *http.Request) {
	p := auth.ProfileFrom(r.Context())

	form := bookingForm{
		FullName: r.FormValue("full_name"),
		Email:    r.FormValue("email"),
		Phone:    r.FormValue("phone"),
		Date:     r.FormValue("date"),
		Time:     r.FormValue("time"),
		Reason:   r.FormValue("reason"),
	}
	page := bookingPage{basePage: h.base(w, r), Form: form, MinDate: time.Now().Format("2006-01-02")}

	if form.FullName == "" || form.Email == "" || form.Phone == "" ||
		form.Date == "" || form.Time == "" || form.Reason == "" {
		page.Error = "All fields are required"
		h.render(w, http.StatusBadRequest, "booking.html", page)
		return
	}

	b := &models.Booking{
		ProfileID:   p.ID,
		FullName:    form.FullName,
		Email:       form.Email,
		Phone:       form.Phone,
		BookingDate: form.Date,
		BookingTime: form.Time,
		Reason:      form.Reason,
		Status:      models.StatusPending,
	}
	if err := h.bookings.Create(r.Context(), b); err != nil {
		page.Error = "Failed to create booking"
		h.log.Error("booking create", "error", err)
		h.render(w, http.StatusInternalServerError, "booking.html", page)
		return
	}

	h.metrics.BookingsCreated.Inc()
	h.events.BookingCreated(r.Context(), b)
	h.notify.BookingCreated(b)

	page.Success = true
	page.Form = bookingForm{FullName: p.FullName, Email: p.Email, Phone: p.Phone}
	h.render(w, http.StatusOK, "booking.html", page)
}
