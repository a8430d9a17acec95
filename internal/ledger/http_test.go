package ledger

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPCaller_Read(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/contracts/0xabc/call", r.URL.Path)
		var req readRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "getPropertyCount", req.Function)
		_ = json.NewEncoder(w).Encode(map[string]any{"result": "3"})
	}))
	defer srv.Close()

	c := &HTTPCaller{BaseURL: srv.URL}
	var count BigInt
	err := c.Read(context.Background(), Call{Contract: "0xabc", Function: "getPropertyCount"}, &count)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count.Int64())
}

func TestHTTPCaller_Read_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "node unreachable"})
	}))
	defer srv.Close()

	c := &HTTPCaller{BaseURL: srv.URL}
	var out BigInt
	err := c.Read(context.Background(), Call{Contract: "0xabc", Function: "getProperty"}, &out)
	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "getProperty", qe.Function)
	assert.Contains(t, qe.Error(), "node unreachable")
}

func TestHTTPCaller_Read_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": {"unexpected": true}}`))
	}))
	defer srv.Close()

	c := &HTTPCaller{BaseURL: srv.URL}
	var out BigInt
	err := c.Read(context.Background(), Call{Contract: "0xabc", Function: "balanceOf"}, &out)
	var qe *QueryError
	require.ErrorAs(t, err, &qe)
}

func TestHTTPCaller_SubmitAndWait(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/contracts/0xabc/transactions":
			var req submitRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "purchaseShares", req.Function)
			assert.Equal(t, "0xbuyer", req.From)
			assert.Equal(t, "1500000000000000000", req.Value)
			_ = json.NewEncoder(w).Encode(map[string]string{"hash": "0xdeadbeef"})
		case "/v1/transactions/0xdeadbeef/receipt":
			assert.Equal(t, "true", r.URL.Query().Get("wait"))
			_ = json.NewEncoder(w).Encode(Receipt{Hash: "0xdeadbeef", Status: StatusSuccess, BlockNumber: 42, GasUsed: 21000})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	value, _ := new(big.Int).SetString("1500000000000000000", 10)
	c := &HTTPCaller{BaseURL: srv.URL}
	hash, err := c.Submit(context.Background(), Call{
		Contract: "0xabc",
		Function: "purchaseShares",
		Args:     []any{uint64(0), uint64(150)},
		From:     "0xbuyer",
		Value:    value,
	})
	require.NoError(t, err)
	assert.Equal(t, TxHash("0xdeadbeef"), hash)

	rcpt, err := c.WaitForReceipt(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, rcpt.Status)
	assert.Equal(t, uint64(42), rcpt.BlockNumber)
}

func TestHTTPCaller_Submit_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Pausable: paused"})
	}))
	defer srv.Close()

	c := &HTTPCaller{BaseURL: srv.URL}
	_, err := c.Submit(context.Background(), Call{Contract: "0xabc", Function: "purchaseShares", From: "0xbuyer"})
	me, ok := AsMutationError(err)
	require.True(t, ok)
	assert.Equal(t, "Pausable: paused", me.Reason)
}

func TestBigIntJSON(t *testing.T) {
	var b BigInt
	require.NoError(t, json.Unmarshal([]byte(`"12345678901234567890"`), &b))
	assert.Equal(t, "12345678901234567890", b.String())

	require.NoError(t, json.Unmarshal([]byte(`42`), &b))
	assert.Equal(t, int64(42), b.Int64())

	require.NoError(t, json.Unmarshal([]byte(`"0x2a"`), &b))
	assert.Equal(t, int64(42), b.Int64())

	out, err := json.Marshal(NewBigInt(big.NewInt(7)))
	require.NoError(t, err)
	assert.Equal(t, `"7"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`"zzz"`), &b))
}
