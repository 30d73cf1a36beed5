package xrpl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"xrpl-wallet-bot/internal/domain"
)

type rpcHandler func(params map[string]interface{}) interface{}

// fakeNode is a minimal rippled JSON-RPC stand-in.
type fakeNode struct {
	mu       sync.Mutex
	handlers map[string]rpcHandler
	calls    map[string]int
	params   map[string][]map[string]interface{}
}

func newFakeNode(t *testing.T) (*fakeNode, *httptest.Server) {
	n := &fakeNode{
		handlers: map[string]rpcHandler{},
		calls:    map[string]int{},
		params:   map[string][]map[string]interface{}{},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string                   `json:"method"`
			Params []map[string]interface{} `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var p map[string]interface{}
		if len(req.Params) > 0 {
			p = req.Params[0]
		}

		n.mu.Lock()
		n.calls[req.Method]++
		n.params[req.Method] = append(n.params[req.Method], p)
		result := interface{}(rpcErr("unknownCmd"))
		if h, found := n.handlers[req.Method]; found {
			result = h(p)
		}
		n.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"result": result})
	}))
	t.Cleanup(srv.Close)
	return n, srv
}

func (n *fakeNode) on(method string, h rpcHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
}

func (n *fakeNode) count(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

func (n *fakeNode) lastParams(method string) map[string]interface{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	ps := n.params[method]
	if len(ps) == 0 {
		return nil
	}
	return ps[len(ps)-1]
}

func rpcErr(code string) map[string]interface{} {
	return map[string]interface{}{"status": "error", "error": code, "error_message": code}
}

func ok(fields map[string]interface{}) map[string]interface{} {
	fields["status"] = "success"
	return fields
}

func accountInfo(balance string, seq int) rpcHandler {
	return func(map[string]interface{}) interface{} {
		return ok(map[string]interface{}{
			"account_data": map[string]interface{}{"Balance": balance, "Sequence": seq},
			"validated":    true,
		})
	}
}

func newTestGateway(t *testing.T, rpcURL, faucetURL string) *Gateway {
	return NewGateway(GatewayConfig{
		RPCURL:         rpcURL,
		FaucetURL:      faucetURL,
		SubmitTimeout:  2 * time.Second,
		FundingTimeout: 2 * time.Second,
		PollInterval:   10 * time.Millisecond,
	}, zaptest.NewLogger(t))
}

func destination(t *testing.T) string {
	kp, _, err := NewWallet(KeyTypeEd25519)
	require.NoError(t, err)
	return kp.Address()
}

func TestGetBalance(t *testing.T) {
	node, srv := newFakeNode(t)
	node.on("account_info", accountInfo("10000000", 1))
	gw := newTestGateway(t, srv.URL, "")

	bal, err := gw.GetBalance(context.Background(), genesisAddress)
	require.NoError(t, err)
	assert.Equal(t, domain.Drops(10_000_000), bal)
	assert.Equal(t, "validated", node.lastParams("account_info")["ledger_index"])
}

func TestGetBalanceAccountNotFound(t *testing.T) {
	node, srv := newFakeNode(t)
	node.on("account_info", func(map[string]interface{}) interface{} { return rpcErr("actNotFound") })
	gw := newTestGateway(t, srv.URL, "")

	_, err := gw.GetBalance(context.Background(), genesisAddress)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestGetBalanceMalformedAddressSkipsNode(t *testing.T) {
	node, srv := newFakeNode(t)
	gw := newTestGateway(t, srv.URL, "")

	_, err := gw.GetBalance(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Zero(t, node.count("account_info"))
}

func TestGetBalanceTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	gw := newTestGateway(t, srv.URL, "")

	_, err := gw.GetBalance(context.Background(), genesisAddress)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func paymentNode(t *testing.T, engineResult, finalResult string) (*fakeNode, *httptest.Server) {
	node, srv := newFakeNode(t)
	node.on("account_info", accountInfo("50000000", 5))
	node.on("fee", func(map[string]interface{}) interface{} {
		return ok(map[string]interface{}{"drops": map[string]interface{}{"base_fee": "10", "open_ledger_fee": "12"}})
	})
	node.on("ledger_current", func(map[string]interface{}) interface{} {
		return ok(map[string]interface{}{"ledger_current_index": 100})
	})
	node.on("ledger", func(map[string]interface{}) interface{} {
		return ok(map[string]interface{}{"ledger_index": 99})
	})
	node.on("submit", func(map[string]interface{}) interface{} {
		return ok(map[string]interface{}{
			"engine_result": engineResult,
			"tx_json":       map[string]interface{}{"hash": "ABC123"},
		})
	})
	node.on("tx", func(map[string]interface{}) interface{} {
		return ok(map[string]interface{}{
			"hash":         "ABC123",
			"ledger_index": 101,
			"validated":    true,
			"meta":         map[string]interface{}{"TransactionResult": finalResult},
		})
	})
	return node, srv
}

func TestSubmitPaymentSuccess(t *testing.T) {
	node, srv := paymentNode(t, "tesSUCCESS", "tesSUCCESS")
	gw := newTestGateway(t, srv.URL, "")

	res, err := gw.SubmitPayment(context.Background(), genesisSeed, 9*domain.DropsPerXRP, destination(t))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "tesSUCCESS", res.ResultCode)
	assert.Equal(t, "ABC123", res.Hash)
	assert.Equal(t, 1, node.count("submit"))

	blob, _ := node.lastParams("submit")["tx_blob"].(string)
	assert.Contains(t, blob, "24"+"00000005", "sequence from account_info")
	assert.Contains(t, blob, "201B"+"00000078", "last ledger = current + 20")
	assert.Contains(t, blob, "68"+"400000000000000C", "open ledger fee")
	assert.Equal(t, "current", node.lastParams("account_info")["ledger_index"])
}

func TestSubmitPaymentClaimedFailure(t *testing.T) {
	node, srv := paymentNode(t, "tesSUCCESS", "tecUNFUNDED_PAYMENT")
	gw := newTestGateway(t, srv.URL, "")

	res, err := gw.SubmitPayment(context.Background(), genesisSeed, domain.DropsPerXRP, destination(t))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "tecUNFUNDED_PAYMENT", res.ResultCode)
	assert.Equal(t, 1, node.count("submit"))
}

func TestSubmitPaymentRejectedOnSubmit(t *testing.T) {
	node, srv := paymentNode(t, "temBAD_AMOUNT", "")
	gw := newTestGateway(t, srv.URL, "")

	res, err := gw.SubmitPayment(context.Background(), genesisSeed, domain.DropsPerXRP, destination(t))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "temBAD_AMOUNT", res.ResultCode)
	assert.Zero(t, node.count("tx"))
}

func TestSubmitPaymentExpires(t *testing.T) {
	node, srv := paymentNode(t, "terQUEUED", "")
	node.on("tx", func(map[string]interface{}) interface{} { return rpcErr("txnNotFound") })
	node.on("ledger", func(map[string]interface{}) interface{} {
		return ok(map[string]interface{}{"ledger_index": 121})
	})
	gw := newTestGateway(t, srv.URL, "")

	res, err := gw.SubmitPayment(context.Background(), genesisSeed, domain.DropsPerXRP, destination(t))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, resultExpired, res.ResultCode)
	assert.Equal(t, 1, node.count("submit"))
}

func TestSubmitPaymentBadSeed(t *testing.T) {
	node, srv := paymentNode(t, "tesSUCCESS", "tesSUCCESS")
	gw := newTestGateway(t, srv.URL, "")

	_, err := gw.SubmitPayment(context.Background(), "garbage", domain.DropsPerXRP, destination(t))
	assert.ErrorIs(t, err, domain.ErrInvalidSeed)
	assert.Zero(t, node.count("submit"))
}

func TestGetRecentTransactions(t *testing.T) {
	node, srv := newFakeNode(t)
	other := destination(t)
	node.on("account_tx", func(map[string]interface{}) interface{} {
		return ok(map[string]interface{}{
			"transactions": []interface{}{
				map[string]interface{}{
					"validated": true,
					"tx": map[string]interface{}{
						"TransactionType": "Payment", "Account": genesisAddress, "Destination": other,
						"Amount": "2500000", "hash": "H1", "date": 0, "ledger_index": 10,
					},
					"meta": map[string]interface{}{"TransactionResult": "tesSUCCESS", "delivered_amount": "2500000"},
				},
				map[string]interface{}{
					"validated": true,
					"tx": map[string]interface{}{
						"TransactionType": "Payment", "Account": other, "Destination": genesisAddress,
						"Amount": "1000000", "hash": "H2", "ledger_index": 9,
					},
					"meta": map[string]interface{}{"TransactionResult": "tesSUCCESS"},
				},
				map[string]interface{}{
					"validated": true,
					"tx":        map[string]interface{}{"TransactionType": "TrustSet", "Account": genesisAddress, "hash": "H3"},
					"meta":      map[string]interface{}{"TransactionResult": "tesSUCCESS"},
				},
				map[string]interface{}{
					"validated": true,
					"tx": map[string]interface{}{
						"TransactionType": "Payment", "Account": other, "Destination": genesisAddress,
						"Amount": map[string]interface{}{"currency": "USD", "value": "1", "issuer": other}, "hash": "H4",
					},
					"meta": map[string]interface{}{"TransactionResult": "tesSUCCESS"},
				},
			},
		})
	})
	gw := newTestGateway(t, srv.URL, "")

	txs, err := gw.GetRecentTransactions(context.Background(), genesisAddress, 5)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, domain.TxDirectionOutgoing, txs[0].Direction)
	assert.Equal(t, other, txs[0].Counterparty)
	assert.Equal(t, domain.Drops(2_500_000), txs[0].Amount)
	assert.Equal(t, 2000, txs[0].Timestamp.Year())

	assert.Equal(t, domain.TxDirectionIncoming, txs[1].Direction)
	assert.Equal(t, other, txs[1].Counterparty)
	assert.EqualValues(t, 5, node.lastParams("account_tx")["limit"])
}

func TestProvisionAccount(t *testing.T) {
	var funded string
	var mu sync.Mutex
	faucet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Destination string `json:"destination"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		funded = body.Destination
		mu.Unlock()
		_, _ = w.Write([]byte(`{"account":{"address":"` + body.Destination + `"},"amount":100}`))
	}))
	defer faucet.Close()

	node, srv := newFakeNode(t)
	polls := 0
	node.on("account_info", func(map[string]interface{}) interface{} {
		polls++
		if polls < 3 {
			return rpcErr("actNotFound")
		}
		return accountInfo("100000000", 1)(nil)
	})
	gw := newTestGateway(t, srv.URL, faucet.URL)

	acct, err := gw.ProvisionAccount(context.Background())
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, funded, acct.Address)
	mu.Unlock()
	assert.True(t, strings.HasPrefix(acct.Seed, "sEd"))
	assert.Equal(t, domain.Drops(100_000_000), acct.Balance)

	kp, err := DeriveKeypair(acct.Seed)
	require.NoError(t, err)
	assert.Equal(t, acct.Address, kp.Address())
}

func TestProvisionAccountFaucetDown(t *testing.T) {
	faucet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer faucet.Close()

	_, srv := newFakeNode(t)
	gw := newTestGateway(t, srv.URL, faucet.URL)

	_, err := gw.ProvisionAccount(context.Background())
	assert.ErrorIs(t, err, domain.ErrProvisioning)
}

func TestProvisionAccountNeverFunded(t *testing.T) {
	faucet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer faucet.Close()

	node, srv := newFakeNode(t)
	node.on("account_info", func(map[string]interface{}) interface{} { return rpcErr("actNotFound") })
	gw := NewGateway(GatewayConfig{
		RPCURL:         srv.URL,
		FaucetURL:      faucet.URL,
		FundingTimeout: 100 * time.Millisecond,
		PollInterval:   10 * time.Millisecond,
	}, zaptest.NewLogger(t))

	_, err := gw.ProvisionAccount(context.Background())
	assert.ErrorIs(t, err, domain.ErrProvisioning)
}
