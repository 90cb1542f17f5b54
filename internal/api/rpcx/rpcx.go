package rpcx

import (
	"encoding/json"
	"net/http"
)

// Processor protocol result codes. They ride inside a JSON-RPC 2.0 error
// object; HTTP status is always 200 for a parsed request.
const (
	CodeUpstreamError    = 102
	CodeDuplicate        = 201
	CodeAlreadyCancelled = 202
	CodeNotFound         = 302
	CodeMethodNotFound   = -32601
	CodeInvalidParams    = -32602
)

type Fields struct {
	Account  string `json:"account"`
	ClientID string `json:"client_id"`
}

type Params struct {
	TransactionID    string      `json:"transactionId"`
	TransactionIDAlt string      `json:"transactionID"`
	Amount           json.Number `json:"amount"`
	Fields           Fields      `json:"fields"`
}

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  Params          `json:"params"`
}

// Txn returns the caller-supplied transaction id, tolerating both spellings
// the processor sends.
func (r Request) Txn() string {
	if r.Params.TransactionID != "" {
		return r.Params.TransactionID
	}
	return r.Params.TransactionIDAlt
}

// Account returns the virtual account id from either request field.
func (r Request) Account() string {
	if r.Params.Fields.Account != "" {
		return r.Params.Fields.Account
	}
	return r.Params.Fields.ClientID
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

func WriteResult(w http.ResponseWriter, id json.RawMessage, result any) {
	write(w, Response{JSONRPC: "2.0", ID: id, Result: result})
}

func WriteError(w http.ResponseWriter, id json.RawMessage, code int, msg string) {
	write(w, Response{JSONRPC: "2.0", ID: id, Error: &Error{Code: code, Message: msg}})
}

func write(w http.ResponseWriter, v Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
