package stub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/georgemunganga/sweetshop/internal/modules/catalog"
	"github.com/georgemunganga/sweetshop/internal/modules/user"
)

type claimsKey struct{}

// Handler exposes the auth and sweets endpoints.
type Handler struct {
	auth   AuthService
	sweets SweetService
	log    logrus.FieldLogger
}

func NewHandler(auth AuthService, sweets SweetService, log logrus.FieldLogger) *Handler {
	return &Handler{auth: auth, sweets: sweets, log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
		})

		r.Route("/sweets", func(r chi.Router) {
			r.Get("/", h.listSweets)
			r.Get("/search", h.searchSweets)

			r.Group(func(r chi.Router) {
				r.Use(h.requireToken)
				r.Post("/{id}/purchase", h.purchase)

				r.Group(func(r chi.Router) {
					r.Use(requireAdmin)
					r.Post("/", h.createSweet)
					r.Put("/{id}", h.updateSweet)
					r.Delete("/{id}", h.deleteSweet)
					r.Post("/{id}/restock", h.restock)
				})
			})
		})
	})
}

func (h *Handler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			respondError(w, http.StatusUnauthorized, "Missing Authorization Header")
			return
		}
		claims, err := h.auth.Verify(raw)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := r.Context().Value(claimsKey{}).(*Claims)
		if claims == nil || claims.Role != user.RoleAdmin {
			respondError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "healthy", "service": "sweet-shop-api"})
}

type authResponse struct {
	Message string    `json:"message"`
	Token   string    `json:"token"`
	User    user.User `json:"user"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req user.Registration
	if !decode(w, r, &req) {
		return
	}
	token, acct, err := h.auth.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, authResponse{Message: "User registered successfully", Token: token, User: acct.Public()})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	token, acct, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, authResponse{Message: "Login successful", Token: token, User: acct.Public()})
}

func (h *Handler) listSweets(w http.ResponseWriter, r *http.Request) {
	sweets, err := h.sweets.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"message": "Sweets retrieved successfully", "sweets": items(sweets)})
}

func (h *Handler) searchSweets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.Filter{Text: q.Get("name")}
	if c := strings.TrimSpace(q.Get("category")); c != "" {
		f.Category = &c
	}
	var err error
	if f.MinPrice, err = parsePrice(q.Get("min_price")); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid price value")
		return
	}
	if f.MaxPrice, err = parsePrice(q.Get("max_price")); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid price value")
		return
	}

	sweets, err := h.sweets.Search(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"message": "Search results", "sweets": items(sweets), "count": len(sweets)})
}

func (h *Handler) createSweet(w http.ResponseWriter, r *http.Request) {
	var d catalog.Draft
	if !decode(w, r, &d) {
		return
	}
	sw, err := h.sweets.Create(r.Context(), d)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"message": "Sweet added successfully", "sweet": sw.Item()})
}

func (h *Handler) updateSweet(w http.ResponseWriter, r *http.Request) {
	var u SweetUpdate
	if !decode(w, r, &u) {
		return
	}
	sw, err := h.sweets.Update(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"message": "Sweet updated successfully", "sweet": sw.Item()})
}

func (h *Handler) deleteSweet(w http.ResponseWriter, r *http.Request) {
	if err := h.sweets.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "Sweet deleted successfully"})
}

type quantityBody struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) purchase(w http.ResponseWriter, r *http.Request) {
	var body quantityBody
	if !decode(w, r, &body) {
		return
	}
	qty := 1
	if body.Quantity != nil {
		qty = *body.Quantity
	}
	sw, err := h.sweets.Purchase(r.Context(), chi.URLParam(r, "id"), qty)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Purchased %d %s(s) successfully", qty, sw.Name),
		"sweet":   sw.Item(),
	})
}

func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	var body quantityBody
	if !decode(w, r, &body) {
		return
	}
	qty := 0
	if body.Quantity != nil {
		qty = *body.Quantity
	}
	sw, err := h.sweets.Restock(r.Context(), chi.URLParam(r, "id"), qty)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Restocked %d %s(s) successfully", qty, sw.Name),
		"sweet":   sw.Item(),
	})
}

// fail answers with the status carried by err, or 500 for anything unexpected.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var se *Error
	if errors.As(err, &se) {
		respondError(w, se.Status, se.Message)
		return
	}
	h.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	respondError(w, http.StatusInternalServerError, "Internal server error")
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "No data provided")
		return false
	}
	return true
}

func parsePrice(s string) (*float64, error) {
	if s = strings.TrimSpace(s); s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func items(sweets []Sweet) []catalog.Item {
	out := make([]catalog.Item, len(sweets))
	for i, sw := range sweets {
		out[i] = sw.Item()
	}
	return out
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respond(w, status, map[string]string{"error": msg})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
