// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/inkwell-go/internal/handler"
	"github.com/olegiv/inkwell-go/internal/ledger"
	"github.com/olegiv/inkwell-go/internal/middleware"
	"github.com/olegiv/inkwell-go/internal/model"
	"github.com/olegiv/inkwell-go/internal/store"
)

// OrderResponse represents an order in API responses. Title and price are
// the snapshots taken at submission time.
type OrderResponse struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	UserEmail  string     `json:"user_email,omitempty"`
	BookID     int64      `json:"book_id"`
	BookTitle  string     `json:"book_title"`
	PriceCents int64      `json:"price_cents"`
	Status     string     `json:"status"`
	ProofURL   string     `json:"proof_url,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy *int64     `json:"resolved_by,omitempty"`
}

// SubmitOrderRequest represents the request body for checkout.
type SubmitOrderRequest struct {
	BookID    int64  `json:"book_id"`
	ProofPath string `json:"proof_path"`
}

// UpdateOrderStatusRequest represents an admin status change.
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// orderToResponse converts a model.Order to OrderResponse. The proof URL
// is only included for admins and the order's owner.
func (h *Handler) orderToResponse(o model.Order, includeProof bool) OrderResponse {
	resp := OrderResponse{
		ID:         o.ID,
		UserID:     o.UserID,
		UserEmail:  o.UserEmail,
		BookID:     o.BookID,
		BookTitle:  o.BookTitle,
		PriceCents: o.PriceCents,
		Status:     o.Status,
		CreatedAt:  o.CreatedAt,
	}
	if includeProof && o.ProofPath != "" {
		resp.ProofURL = h.media.URL(o.ProofPath, "")
	}
	if o.ResolvedAt.Valid {
		resp.ResolvedAt = &o.ResolvedAt.Time
	}
	if o.ResolvedBy.Valid {
		resp.ResolvedBy = &o.ResolvedBy.Int64
	}
	return resp
}

// SubmitOrder handles POST /api/v1/orders. The caller submits a book ID and
// the upload path of their payment proof; the order starts out pending.
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	var req SubmitOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fieldErrors := make(map[string]string)
	if req.BookID <= 0 {
		fieldErrors["book_id"] = "A book ID is required"
	}
	req.ProofPath = strings.TrimSpace(req.ProofPath)
	if req.ProofPath == "" {
		fieldErrors["proof_path"] = "A payment proof upload is required"
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	order, err := h.ledger.Submit(r.Context(), ledger.SubmitParams{
		UserID:    user.ID,
		UserEmail: user.Email,
		BookID:    req.BookID,
		ProofPath: req.ProofPath,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrBookNotFound):
			WriteNotFound(w, "Book not found")
		case errors.Is(err, ledger.ErrAlreadyOwned):
			WriteConflict(w, "already_owned", "You already own this book")
		case errors.Is(err, ledger.ErrDuplicatePending):
			WriteConflict(w, "order_pending", "A pending order for this book already exists")
		default:
			WriteInternalError(w, "Failed to submit order")
		}
		return
	}

	WriteCreated(w, h.orderToResponse(order, true))
}

// ListMyOrders handles GET /api/v1/orders/mine. Returns the caller's own orders,
// newest first.
func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	orders, err := h.queries.ListOrdersForUser(r.Context(), user.ID)
	if err != nil {
		WriteInternalError(w, "Failed to list orders")
		return
	}

	responses := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		responses = append(responses, h.orderToResponse(o, true))
	}
	WriteSuccess(w, responses, nil)
}

// GetOrder handles GET /api/v1/orders/{id}. Customers can only see their own
// orders; admins can see any.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	order, ok := requireEntityByID(w, r, "order", func(id int64) (model.Order, error) {
		return h.queries.GetOrderByID(r.Context(), id)
	})
	if !ok {
		return
	}

	if !user.IsAdmin() && order.UserID != user.ID {
		// Hide the order's existence from other customers.
		WriteNotFound(w, "Order not found")
		return
	}

	WriteSuccess(w, h.orderToResponse(order, true), nil)
}

// AdminListOrders handles GET /api/v1/orders (admin) with an optional
// ?status= filter.
func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !model.IsValidOrderStatus(status) {
		WriteBadRequest(w, "Invalid status filter", nil)
		return
	}

	page := handler.ParsePageParam(r)
	perPage := handler.ParsePerPageParam(r, handler.DefaultPerPage, handler.MaxPerPage)
	offset := (page - 1) * perPage

	orders, err := h.queries.ListOrders(r.Context(), store.ListOrdersParams{
		Status: status,
		Limit:  int64(perPage),
		Offset: int64(offset),
	})
	if err != nil {
		WriteInternalError(w, "Failed to list orders")
		return
	}

	total, err := h.queries.CountOrders(r.Context(), status)
	if err != nil {
		WriteInternalError(w, "Failed to count orders")
		return
	}

	responses := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		responses = append(responses, h.orderToResponse(o, true))
	}

	WriteSuccess(w, responses, &Meta{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   handler.CalculateTotalPages(total, perPage),
	})
}

// ApproveOrder handles POST /api/v1/orders/{id}/approve (admin).
func (h *Handler) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	h.resolveOrder(w, r, model.OrderStatusCompleted)
}

// RejectOrder handles POST /api/v1/orders/{id}/reject (admin).
func (h *Handler) RejectOrder(w http.ResponseWriter, r *http.Request) {
	h.resolveOrder(w, r, model.OrderStatusRejected)
}

// RevokeOrder handles POST /api/v1/orders/{id}/revoke (admin).
func (h *Handler) RevokeOrder(w http.ResponseWriter, r *http.Request) {
	h.resolveOrder(w, r, model.OrderStatusRevoked)
}

// UpdateOrderStatus handles PUT /api/v1/orders/{id} (admin) with an
// explicit target status in the body.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !model.IsValidOrderStatus(req.Status) {
		WriteValidationError(w, map[string]string{"status": "Unknown order status"})
		return
	}
	h.resolveOrder(w, r, req.Status)
}

// resolveOrder applies a status change through the ledger and maps its
// sentinel errors onto HTTP responses.
func (h *Handler) resolveOrder(w http.ResponseWriter, r *http.Request, status string) {
	admin := middleware.GetUser(r)
	if admin == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	orderID, err := handler.ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid order ID", nil)
		return
	}

	order, err := h.ledger.SetStatus(r.Context(), orderID, admin.ID, status)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrOrderNotFound):
			WriteNotFound(w, "Order not found")
		case errors.Is(err, ledger.ErrInvalidTransition):
			WriteConflict(w, "invalid_transition", "Order cannot move to this status")
		default:
			WriteInternalError(w, "Failed to update order")
		}
		return
	}

	WriteSuccess(w, h.orderToResponse(order, true), nil)
}
