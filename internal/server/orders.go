package server

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	params := repository.ListParams{
		SortBy:  r.URL.Query().Get("sort_by"),
		SortDir: r.URL.Query().Get("order"),
	}
	var err error
	if params.Page, err = queryInt(r, "page", 1); err != nil {
		writeError(w, http.StatusBadRequest, "page and per_page must be valid integers")
		return
	}
	if params.PerPage, err = queryInt(r, "per_page", 10); err != nil {
		writeError(w, http.StatusBadRequest, "page and per_page must be valid integers")
		return
	}

	orders, pagination, err := s.orders.List(r.Context(), params)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":       orders,
		"pagination": pagination,
	})
}

// createOrderRequest mirrors SalesOrder but takes dates as ISO strings, the
// way clients send them.
type createOrderRequest struct {
	RevisionNumber         *int64   `json:"RevisionNumber"`
	OrderDate              *string  `json:"OrderDate"`
	DueDate                *string  `json:"DueDate"`
	ShipDate               *string  `json:"ShipDate"`
	Status                 *int64   `json:"Status"`
	OnlineOrderFlag        *bool    `json:"OnlineOrderFlag"`
	SalesOrderNumber       *string  `json:"SalesOrderNumber"`
	PurchaseOrderNumber    *string  `json:"PurchaseOrderNumber"`
	AccountNumber          *string  `json:"AccountNumber"`
	CustomerID             *int64   `json:"CustomerID"`
	SalesPersonID          *int64   `json:"SalesPersonID"`
	TerritoryID            *int64   `json:"TerritoryID"`
	BillToAddressID        *int64   `json:"BillToAddressID"`
	ShipToAddressID        *int64   `json:"ShipToAddressID"`
	ShipMethodID           *int64   `json:"ShipMethodID"`
	CreditCardID           *int64   `json:"CreditCardID"`
	CreditCardApprovalCode *string  `json:"CreditCardApprovalCode"`
	CurrencyRateID         *int64   `json:"CurrencyRateID"`
	SubTotal               *float64 `json:"SubTotal"`
	TaxAmt                 *float64 `json:"TaxAmt"`
	Freight                *float64 `json:"Freight"`
	TotalDue               *float64 `json:"TotalDue"`

	LineItems []createOrderItem `json:"line_items"`
}

type createOrderItem struct {
	CarrierTrackingNumber *string  `json:"CarrierTrackingNumber"`
	OrderQty              *int64   `json:"OrderQty"`
	ProductID             *int64   `json:"ProductID"`
	SpecialOfferID        *int64   `json:"SpecialOfferID"`
	UnitPrice             *float64 `json:"UnitPrice"`
	UnitPriceDiscount     *float64 `json:"UnitPriceDiscount"`
	LineTotal             *float64 `json:"LineTotal"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		writeError(w, http.StatusBadRequest, "Request body must be JSON")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CustomerID == nil {
		writeError(w, http.StatusBadRequest, "CustomerID is required")
		return
	}
	if req.TerritoryID == nil {
		writeError(w, http.StatusBadRequest, "TerritoryID is required")
		return
	}

	order := entity.SalesOrder{
		RevisionNumber:         req.RevisionNumber,
		Status:                 req.Status,
		OnlineOrderFlag:        req.OnlineOrderFlag,
		SalesOrderNumber:       req.SalesOrderNumber,
		PurchaseOrderNumber:    req.PurchaseOrderNumber,
		AccountNumber:          req.AccountNumber,
		CustomerID:             *req.CustomerID,
		SalesPersonID:          req.SalesPersonID,
		TerritoryID:            *req.TerritoryID,
		BillToAddressID:        req.BillToAddressID,
		ShipToAddressID:        req.ShipToAddressID,
		ShipMethodID:           req.ShipMethodID,
		CreditCardID:           req.CreditCardID,
		CreditCardApprovalCode: req.CreditCardApprovalCode,
		CurrencyRateID:         req.CurrencyRateID,
		SubTotal:               req.SubTotal,
		TaxAmt:                 req.TaxAmt,
		Freight:                req.Freight,
		TotalDue:               req.TotalDue,
	}
	dates := []struct {
		field string
		src   *string
		dst   **time.Time
	}{
		{"OrderDate", req.OrderDate, &order.OrderDate},
		{"DueDate", req.DueDate, &order.DueDate},
		{"ShipDate", req.ShipDate, &order.ShipDate},
	}
	for _, d := range dates {
		if d.src == nil {
			continue
		}
		t, err := parseISODate(*d.src)
		if err != nil {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Invalid date format for %s. Use ISO format (YYYY-MM-DDTHH:MM:SS)", d.field))
			return
		}
		*d.dst = &t
	}

	items := make([]entity.SalesOrderItem, 0, len(req.LineItems))
	for _, it := range req.LineItems {
		items = append(items, entity.SalesOrderItem{
			CarrierTrackingNumber: it.CarrierTrackingNumber,
			OrderQty:              it.OrderQty,
			ProductID:             it.ProductID,
			SpecialOfferID:        it.SpecialOfferID,
			UnitPrice:             it.UnitPrice,
			UnitPriceDiscount:     it.UnitPriceDiscount,
			LineTotal:             it.LineTotal,
		})
	}

	stored, storedItems, err := s.orders.Create(r.Context(), &order, items)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"order":      stored,
		"line_items": storedItems,
	})
}

// updateIntFields are the editable header columns stored as integers; JSON
// numbers arrive as float64 and must be whole to be accepted.
var updateIntFields = map[string]bool{
	"RevisionNumber": true, "Status": true,
	"CustomerID": true, "SalesPersonID": true, "TerritoryID": true,
	"BillToAddressID": true, "ShipToAddressID": true, "ShipMethodID": true,
	"CreditCardID": true, "CurrencyRateID": true,
}

var updateDateFields = map[string]bool{
	"OrderDate": true, "DueDate": true, "ShipDate": true,
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		writeError(w, http.StatusBadRequest, "Request body must be JSON")
		return
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if v, present := body["SalesOrderID"]; present {
		if f, isNum := v.(float64); !isNum || int64(f) != id {
			writeError(w, http.StatusBadRequest, "SalesOrderID cannot be modified")
			return
		}
	}

	// Only whitelisted columns are picked up; anything else is ignored.
	fields := make(map[string]any)
	for _, col := range repository.EditableOrderColumns {
		v, present := body[col]
		if !present {
			continue
		}
		if v == nil {
			fields[col] = nil
			continue
		}
		switch {
		case updateDateFields[col]:
			raw, isStr := v.(string)
			if !isStr {
				writeError(w, http.StatusBadRequest,
					fmt.Sprintf("Invalid date format for %s. Use ISO format (YYYY-MM-DDTHH:MM:SS)", col))
				return
			}
			t, err := parseISODate(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest,
					fmt.Sprintf("Invalid date format for %s. Use ISO format (YYYY-MM-DDTHH:MM:SS)", col))
				return
			}
			fields[col] = t
		case updateIntFields[col]:
			f, isNum := v.(float64)
			if !isNum || f != math.Trunc(f) {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be an integer", col))
				return
			}
			fields[col] = int64(f)
		default:
			fields[col] = v
		}
	}

	order, err := s.orders.Update(r.Context(), id, fields)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	order, items, err := s.orders.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"order":      order,
		"line_items": items,
	})
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	if err := s.orders.Delete(r.Context(), id); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	data, err := s.exporter.ExportOrderXLSX(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=sales_order_%d.xlsx", id))
	_, _ = w.Write(data)
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "order id must be an integer")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// parseISODate accepts ISO-8601 timestamps with or without a zone, plus bare
// dates.
func parseISODate(s string) (time.Time, error) {
	s = strings.ReplaceAll(s, "Z", "+00:00")
	for _, layout := range []string{
		"2006-01-02T15:04:05-07:00",
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
