package ordersapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jiaming2012/tradebox/src/eventmodels"
	"github.com/jiaming2012/tradebox/src/orders"
)

// Executor runs stored orders.
type Executor interface {
	Execute(ctx context.Context, orderID uint) (*eventmodels.ExecutionReport, error)
	Dispatch(ctx context.Context, orderID uint) (uuid.UUID, error)
}

type ExecutionReader interface {
	GetExecution(ctx context.Context, id uuid.UUID) (*eventmodels.ExecutionReport, error)
	ListExecutions(ctx context.Context, orderID uint) ([]*eventmodels.ExecutionReport, error)
}

type executeOptions struct {
	Async bool `schema:"async"`
}

type setActiveRequest struct {
	Active *bool `json:"active" schema:"active"`
}

type Handler struct {
	executor   Executor
	executions ExecutionReader
	orders     *orders.Service
	decoder    *schema.Decoder
}

func NewHandler(executor Executor, executions ExecutionReader, service *orders.Service) *Handler {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &Handler{
		executor:   executor,
		executions: executions,
		orders:     service,
		decoder:    decoder,
	}
}

// SetupHandler registers the order routes on router.
func SetupHandler(router *mux.Router, h *Handler) {
	handle := func(pattern string, fn http.HandlerFunc, methods ...string) {
		router.Handle(pattern, otelhttp.WithRouteTag(pattern, fn)).Methods(methods...)
	}

	handle("/", h.index, http.MethodGet)
	handle("/orders/execute/{id}", h.executeOrder, http.MethodGet, http.MethodPost)
	handle("/executions/{id}", h.getExecution, http.MethodGet)
	handle("/orders.csv", h.exportOrders, http.MethodGet)
	handle("/orders", h.listOrders, http.MethodGet)
	handle("/orders", h.createOrder, http.MethodPost)
	handle("/orders", h.deleteAllOrders, http.MethodDelete)
	handle("/orders/{id}", h.getOrder, http.MethodGet)
	handle("/orders/{id}", h.deleteOrder, http.MethodDelete)
	handle("/orders/{id}/active", h.setActive, http.MethodPut)
	handle("/orders/{id}/executions", h.listExecutions, http.MethodGet)
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("tradebox"))
}

func (h *Handler) executeOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		setErrorResponse("executeOrder: invalid order id", err, w)
		return
	}

	var opts executeOptions
	if err := h.decoder.Decode(&opts, r.URL.Query()); err != nil {
		setErrorResponse("executeOrder: invalid query", &orders.ValidationError{Err: err}, w)
		return
	}

	if opts.Async {
		executionID, err := h.executor.Dispatch(r.Context(), id)
		if err != nil {
			setErrorResponse("executeOrder: failed to dispatch", err, w)
			return
		}

		setResponse(map[string]interface{}{"execution_id": executionID, "order_id": id}, http.StatusAccepted, w)
		return
	}

	report, err := h.executor.Execute(r.Context(), id)
	if err != nil {
		if report == nil {
			setErrorResponse("executeOrder: failed to execute", err, w)
			return
		}

		// the run started; the report says how far it got
		setResponse(report, statusCode(err), w)
		return
	}

	setResponse(report, http.StatusOK, w)
}

func (h *Handler) getExecution(w http.ResponseWriter, r *http.Request) {
	executionID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		setErrorResponse("getExecution: invalid execution id", &orders.ValidationError{Err: err}, w)
		return
	}

	report, err := h.executions.GetExecution(r.Context(), executionID)
	if err != nil {
		setErrorResponse("getExecution: failed to get execution", err, w)
		return
	}

	setResponse(report, http.StatusOK, w)
}

func (h *Handler) listExecutions(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		setErrorResponse("listExecutions: invalid order id", err, w)
		return
	}

	if _, err := h.orders.Get(r.Context(), id); err != nil {
		setErrorResponse("listExecutions: failed to get order", err, w)
		return
	}

	list, err := h.executions.ListExecutions(r.Context(), id)
	if err != nil {
		setErrorResponse("listExecutions: failed to list executions", err, w)
		return
	}

	if list == nil {
		list = []*eventmodels.ExecutionReport{}
	}

	setResponse(list, http.StatusOK, w)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.orders.List(r.Context())
	if err != nil {
		setErrorResponse("listOrders: failed to list orders", err, w)
		return
	}

	setResponse(list, http.StatusOK, w)
}

func (h *Handler) exportOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.orders.List(r.Context())
	if err != nil {
		setErrorResponse("exportOrders: failed to list orders", err, w)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="orders.csv"`)

	if err := gocsv.Marshal(eventmodels.NewOrderCSVRows(list), w); err != nil {
		setErrorResponse("exportOrders: failed to write csv", err, w)
	}
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req eventmodels.CreateOrderRequest

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			setErrorResponse("createOrder: invalid json", &orders.ValidationError{Err: err}, w)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			setErrorResponse("createOrder: invalid form", &orders.ValidationError{Err: err}, w)
			return
		}

		if err := h.decoder.Decode(&req, r.PostForm); err != nil {
			setErrorResponse("createOrder: invalid form", &orders.ValidationError{Err: err}, w)
			return
		}
	}

	order, err := h.orders.Create(r.Context(), &req)
	if err != nil {
		setErrorResponse("createOrder: failed to create order", err, w)
		return
	}

	setResponse(order, http.StatusCreated, w)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		setErrorResponse("getOrder: invalid order id", err, w)
		return
	}

	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		setErrorResponse("getOrder: failed to get order", err, w)
		return
	}

	setResponse(order, http.StatusOK, w)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		setErrorResponse("deleteOrder: invalid order id", err, w)
		return
	}

	if err := h.orders.Delete(r.Context(), id); err != nil {
		setErrorResponse("deleteOrder: failed to delete order", err, w)
		return
	}

	setResponse(map[string]interface{}{"deleted": id}, http.StatusOK, w)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		setErrorResponse("setActive: invalid order id", err, w)
		return
	}

	var req setActiveRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			setErrorResponse("setActive: invalid json", &orders.ValidationError{Err: err}, w)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			setErrorResponse("setActive: invalid form", &orders.ValidationError{Err: err}, w)
			return
		}

		if err := h.decoder.Decode(&req, r.Form); err != nil {
			setErrorResponse("setActive: invalid form", &orders.ValidationError{Err: err}, w)
			return
		}
	}

	if req.Active == nil {
		setErrorResponse("setActive: missing field", &orders.ValidationError{Err: fmt.Errorf("active is required")}, w)
		return
	}

	if err := h.orders.SetActive(r.Context(), id, *req.Active); err != nil {
		setErrorResponse("setActive: failed to update order", err, w)
		return
	}

	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		setErrorResponse("setActive: failed to get order", err, w)
		return
	}

	setResponse(order, http.StatusOK, w)
}

func (h *Handler) deleteAllOrders(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.DeleteAll(r.Context()); err != nil {
		setErrorResponse("deleteAllOrders: failed to delete orders", err, w)
		return
	}

	setResponse(map[string]interface{}{"deleted": "all"}, http.StatusOK, w)
}

func orderID(r *http.Request) (uint, error) {
	raw := mux.Vars(r)["id"]

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, &orders.ValidationError{Err: fmt.Errorf("order id must be a positive integer: %q", raw)}
	}

	return uint(id), nil
}
