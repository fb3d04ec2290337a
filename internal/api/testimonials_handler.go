package api

import (
	"context"
	"net/http"

	"github.com/flowmatrix/roiportal/internal/apperr"
	"github.com/flowmatrix/roiportal/internal/auth"
	"github.com/flowmatrix/roiportal/internal/policy"
	"github.com/flowmatrix/roiportal/internal/testimonial"
	"github.com/flowmatrix/roiportal/internal/validate"
)

type testimonialsHandler struct {
	guard        *policy.Guard
	testimonials TestimonialStore
}

func newTestimonialsHandler(guard *policy.Guard, testimonials TestimonialStore) *testimonialsHandler {
	return &testimonialsHandler{guard: guard, testimonials: testimonials}
}

// List handles GET /api/v1/testimonials.
func (h *testimonialsHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), policy.Rule{
		Action:       "testimonial.list",
		RequiredRole: auth.RoleEmployee,
	}); err != nil {
		writeAppError(w, r, err)
		return
	}

	items, err := h.testimonials.List(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if items == nil {
		items = []*testimonial.Testimonial{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"testimonials": items})
}

// Create handles POST /api/v1/testimonials. A client submits for itself and
// its own company only.
func (h *testimonialsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in testimonial.CreateTestimonialInput
	if err := readJSON(r, &in); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := validate.TestimonialCreate(&in).Err(); err != nil {
		writeAppError(w, r, err)
		return
	}

	if _, err := h.guard.Authorize(r.Context(), policy.Rule{
		Action:       "testimonial.create",
		RequiredRole: auth.RoleClient,
		Owner: func(context.Context) (string, error) {
			return in.ClientID, nil
		},
		SelfOnly: func(_ context.Context, u *auth.User) error {
			if in.UserID != u.ID {
				return apperr.Forbidden("You can only submit testimonials as yourself")
			}
			return nil
		},
	}); err != nil {
		writeAppError(w, r, err)
		return
	}

	t, err := h.testimonials.Create(r.Context(), in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	auditLog(r, "testimonial.create", "testimonial", t.ID, "client_id", t.ClientID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "Testimonial submitted successfully",
		"testimonial": t,
	})
}
