package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/fleetpay/topup-gateway/internal/api/rpcx"
	"github.com/fleetpay/topup-gateway/internal/fleet"
	"github.com/fleetpay/topup-gateway/internal/metrics"
	repo "github.com/fleetpay/topup-gateway/internal/repository"
	"github.com/fleetpay/topup-gateway/internal/services"
)

// RPCHandler dispatches the processor's JSON-RPC methods onto the gateway
// service and maps domain errors to the protocol's fixed codes.
type RPCHandler struct {
	gw  *services.GatewayService
	log *slog.Logger
}

func NewRPCHandler(gw *services.GatewayService, log *slog.Logger) *RPCHandler {
	return &RPCHandler{gw: gw, log: log}
}

func (h *RPCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcx.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.reply(w, req, rpcx.CodeInvalidParams, "Invalid request")
		return
	}

	switch req.Method {
	case "GetInformation":
		h.getInformation(w, r, req)
	case "PerformTransaction":
		h.performTransaction(w, r, req)
	case "CheckTransaction":
		h.checkTransaction(w, r, req)
	case "CancelTransaction":
		h.cancelTransaction(w, r, req)
	default:
		h.reply(w, req, rpcx.CodeMethodNotFound, "Method not found")
	}
}

func (h *RPCHandler) getInformation(w http.ResponseWriter, r *http.Request, req rpcx.Request) {
	account := req.Account()
	if account == "" {
		h.reply(w, req, rpcx.CodeInvalidParams, "Missing account")
		return
	}
	acct, err := h.gw.Lookup(r.Context(), account)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			h.reply(w, req, rpcx.CodeNotFound, "Клиент не найден")
			return
		}
		h.internal(w, req, err)
		return
	}
	h.result(w, req, map[string]any{
		"status":    0,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"fields":    map[string]string{"name": acct.Name},
	})
}

func (h *RPCHandler) performTransaction(w http.ResponseWriter, r *http.Request, req rpcx.Request) {
	txnID, account := req.Txn(), req.Account()
	amount, amtErr := req.Params.Amount.Int64()
	if txnID == "" || account == "" || amtErr != nil || amount <= 0 {
		h.reply(w, req, rpcx.CodeInvalidParams, "Missing or malformed parameters")
		return
	}

	tx, err := h.gw.Perform(r.Context(), txnID, account, amount)
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrAlreadyExists):
		h.reply(w, req, rpcx.CodeDuplicate, "Транзакция уже существует")
		return
	case errors.Is(err, repo.ErrNotFound):
		h.reply(w, req, rpcx.CodeNotFound, "Клиент не найден")
		return
	default:
		var ue *fleet.UpstreamError
		if !errors.As(err, &ue) {
			h.log.Error("perform transaction failed", "txn_id", txnID, "err", err)
		}
		h.reply(w, req, rpcx.CodeUpstreamError, "System error")
		return
	}

	h.result(w, req, map[string]any{
		"providerTrnId": tx.ProviderTrnID,
		"timestamp":     tx.CreatedAt.Format(time.RFC3339),
		"fields":        map[string]string{"client_id": account},
	})
}

func (h *RPCHandler) checkTransaction(w http.ResponseWriter, r *http.Request, req rpcx.Request) {
	txnID := req.Txn()
	if txnID == "" {
		h.reply(w, req, rpcx.CodeInvalidParams, "Missing transactionId")
		return
	}
	tx, err := h.gw.Check(r.Context(), txnID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			h.reply(w, req, rpcx.CodeNotFound, "Транзакция не найдена")
			return
		}
		h.internal(w, req, err)
		return
	}
	h.result(w, req, map[string]any{
		"transactionState": int(tx.State),
		"timestamp":        tx.UpdatedAt.Format(time.RFC3339),
		"providerTrnId":    tx.ProviderTrnID,
	})
}

func (h *RPCHandler) cancelTransaction(w http.ResponseWriter, r *http.Request, req rpcx.Request) {
	txnID := req.Txn()
	if txnID == "" {
		h.reply(w, req, rpcx.CodeInvalidParams, "Missing transactionId")
		return
	}
	tx, err := h.gw.Cancel(r.Context(), txnID)
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrNotFound):
		h.reply(w, req, rpcx.CodeNotFound, "Транзакция не найдена")
		return
	case errors.Is(err, repo.ErrAlreadyCancelled):
		h.reply(w, req, rpcx.CodeAlreadyCancelled, "Транзакция уже отменена")
		return
	default:
		h.internal(w, req, err)
		return
	}
	h.result(w, req, map[string]any{
		"transactionState": int(tx.State),
		"timestamp":        tx.UpdatedAt.Format(time.RFC3339),
		"providerTrnId":    tx.ProviderTrnID,
	})
}

func (h *RPCHandler) result(w http.ResponseWriter, req rpcx.Request, v any) {
	metrics.RPCRequestsTotal.WithLabelValues(req.Method, "0").Inc()
	rpcx.WriteResult(w, req.ID, v)
}

func (h *RPCHandler) reply(w http.ResponseWriter, req rpcx.Request, code int, msg string) {
	metrics.RPCRequestsTotal.WithLabelValues(req.Method, strconv.Itoa(code)).Inc()
	rpcx.WriteError(w, req.ID, code, msg)
}

// internal collapses unanticipated failures to the generic upstream code so
// nothing leaks to the processor.
func (h *RPCHandler) internal(w http.ResponseWriter, req rpcx.Request, err error) {
	h.log.Error("rpc internal error", "method", req.Method, "err", err)
	h.reply(w, req, rpcx.CodeUpstreamError, "System error")
}
