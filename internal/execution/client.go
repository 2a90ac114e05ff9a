package execution

import (
	"context"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mselser95/polymarket-copytrader/pkg/types"
	"github.com/polymarket/go-order-utils/pkg/builder"
	"github.com/polymarket/go-order-utils/pkg/model"
	"go.uber.org/zap"
)

// OrderResponse is the normalized result of one order submission attempt.
type OrderResponse struct {
	OrderID     string
	Status      string
	FilledSize  float64
	FilledPrice float64
}

// OrderSink is the outbound execution endpoint. Implementations must treat
// a repeated idempotency key as the same logical submission.
type OrderSink interface {
	PlaceOrder(ctx context.Context, order *types.CopyOrder, idempotencyKey string) (*OrderResponse, error)
}

// OrderClient submits signed orders to the Polymarket CLOB.
type OrderClient struct {
	baseURL       string
	apiKey        string
	secret        string
	passphrase    string
	privateKey    *ecdsa.PrivateKey
	address       string // EOA address (signer)
	proxyAddress  string // proxy address (maker/funder), empty for EOA mode
	signatureType model.SignatureType
	orderBuilder  builder.ExchangeOrderBuilder
	httpClient    *http.Client
	logger        *zap.Logger
}

// OrderClientConfig holds configuration for the order client.
type OrderClientConfig struct {
	BaseURL       string
	APIKey        string
	Secret        string
	Passphrase    string
	PrivateKey    string
	ProxyAddress  string
	SignatureType int
	Logger        *zap.Logger
}

// NewOrderClient creates a new CLOB order client.
func NewOrderClient(cfg *OrderClientConfig) (*OrderClient, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	publicKey := privateKey.Public()
	publicKeyECDSA, _ := publicKey.(*ecdsa.PublicKey)
	address := crypto.PubkeyToAddress(*publicKeyECDSA).Hex()

	chainID := big.NewInt(137) // Polygon mainnet
	orderBuilder := builder.NewExchangeOrderBuilderImpl(chainID, nil)

	return &OrderClient{
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		secret:        cfg.Secret,
		passphrase:    cfg.Passphrase,
		privateKey:    privateKey,
		address:       address,
		proxyAddress:  cfg.ProxyAddress,
		signatureType: model.SignatureType(cfg.SignatureType),
		orderBuilder:  orderBuilder,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        cfg.Logger,
	}, nil
}

// signedOrderJSON represents a signed order in the CLOB wire format.
type signedOrderJSON struct {
	Salt          int64  `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Side          string `json:"side"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	SignatureType int    `json:"signatureType"`
	Signature     string `json:"signature"`
}

// submissionResponse is the CLOB response to POST /order.
type submissionResponse struct {
	Success      bool   `json:"success"`
	ErrorMsg     string `json:"errorMsg"`
	OrderID      string `json:"orderId"`
	Status       string `json:"status"` // matched, live, delayed, unmatched
	TakingAmount string `json:"takingAmount"`
	MakingAmount string `json:"makingAmount"`
}

// PlaceOrder builds, signs and submits a single order for a copy trade.
// The idempotency key rides along as the client order ID so a retried
// submission is recognized as the same intent by the sink.
func (c *OrderClient) PlaceOrder(ctx context.Context, order *types.CopyOrder, idempotencyKey string) (*OrderResponse, error) {
	makerAddress := c.address
	if c.proxyAddress != "" {
		makerAddress = c.proxyAddress
	}

	// For a BUY we spend USDC (maker) to take outcome tokens; a SELL is
	// the reverse. Amounts are raw 6-decimal units.
	var side model.Side
	var makerAmount, takerAmount string
	if order.Side == types.SideBuy {
		side = model.BUY
		makerAmount = usdToRawAmount(order.Notional)
		takerAmount = usdToRawAmount(order.Size)
	} else {
		side = model.SELL
		makerAmount = usdToRawAmount(order.Size)
		takerAmount = usdToRawAmount(order.Notional)
	}

	orderData := &model.OrderData{
		Maker:         makerAddress,
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenId:       order.TokenID,
		MakerAmount:   makerAmount,
		TakerAmount:   takerAmount,
		Side:          side,
		FeeRateBps:    "0",
		Nonce:         "0",
		Signer:        c.address,
		Expiration:    "0",
		SignatureType: c.signatureType,
	}

	signedOrder, err := c.orderBuilder.BuildSignedOrder(c.privateKey, orderData, model.CTFExchange)
	if err != nil {
		return nil, fmt.Errorf("build signed order: %w", err)
	}

	c.logger.Debug("order-built",
		zap.String("source-trade-id", order.SourceTradeID),
		zap.String("maker", makerAddress),
		zap.String("side", string(order.Side)),
		zap.Float64("size", order.Size))

	return c.submitOrder(ctx, signedOrder, order, idempotencyKey)
}

func (c *OrderClient) submitOrder(ctx context.Context, order *model.SignedOrder, copyOrder *types.CopyOrder, idempotencyKey string) (*OrderResponse, error) {
	sideStr := "BUY"
	if order.Side.Uint64() == uint64(model.SELL) {
		sideStr = "SELL"
	}

	jsonOrder := signedOrderJSON{
		Salt:          order.Salt.Int64(),
		Maker:         order.Maker.Hex(),
		Signer:        order.Signer.Hex(),
		Taker:         order.Taker.Hex(),
		TokenID:       order.TokenId.String(),
		MakerAmount:   order.MakerAmount.String(),
		TakerAmount:   order.TakerAmount.String(),
		Side:          sideStr,
		Expiration:    order.Expiration.String(),
		Nonce:         order.Nonce.String(),
		FeeRateBps:    order.FeeRateBps.String(),
		SignatureType: int(order.SignatureType.Int64()),
		Signature:     "0x" + common.Bytes2Hex(order.Signature),
	}

	// "owner" is the API key, not the maker address. The client order ID
	// carries the idempotency token.
	orderRequest := map[string]interface{}{
		"order":         jsonOrder,
		"owner":         c.apiKey,
		"orderType":     "FAK",
		"clientOrderId": idempotencyKey,
	}

	reqBody, err := json.Marshal(orderRequest)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	method := "POST"
	requestPath := "/order"

	signaturePayload := timestamp + method + requestPath + string(reqBody)

	// Secret is URL-safe base64, matching the official client.
	secretBytes, err := base64.URLEncoding.DecodeString(c.secret)
	if err != nil {
		return nil, fmt.Errorf("decode secret: %w", err)
	}

	h := hmac.New(sha256.New, secretBytes)
	h.Write([]byte(signaturePayload))
	signature := base64.URLEncoding.EncodeToString(h.Sum(nil))

	url := c.baseURL + requestPath
	req, err := http.NewRequestWithContext(ctx, method, url, strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("POLY_API_KEY", c.apiKey)
	req.Header.Set("POLY_SIGNATURE", signature)
	req.Header.Set("POLY_TIMESTAMP", timestamp)
	req.Header.Set("POLY_PASSPHRASE", c.passphrase)
	req.Header.Set("POLY_ADDRESS", c.address)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &types.TransportError{Op: "submit order", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.TransportError{Op: "read response", Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &types.FatalAuthError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &types.OrderError{Code: types.ErrRateLimited, Message: "rate limited by CLOB"}
	}

	if resp.StatusCode >= 500 {
		return nil, &types.TransportError{
			Op:  "submit order",
			Err: fmt.Errorf("server error %d: %s", resp.StatusCode, string(body)),
		}
	}

	var subResp submissionResponse
	if err := json.Unmarshal(body, &subResp); err != nil {
		return nil, fmt.Errorf("parse response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated || !subResp.Success {
		code := types.ErrUnknownStatus
		if subResp.Status == "unmatched" {
			code = types.ErrUnmatched
		}
		return nil, &types.OrderError{
			Code:    code,
			Message: subResp.ErrorMsg,
			OrderID: subResp.OrderID,
		}
	}

	filledSize, filledPrice := fillFromAmounts(copyOrder, subResp.MakingAmount, subResp.TakingAmount)

	return &OrderResponse{
		OrderID:     subResp.OrderID,
		Status:      subResp.Status,
		FilledSize:  filledSize,
		FilledPrice: filledPrice,
	}, nil
}

// fillFromAmounts derives filled size and average price from the raw
// making/taking amounts in the submission response. Falls back to the
// requested price limit when amounts are absent (e.g. resting orders).
func fillFromAmounts(order *types.CopyOrder, makingAmount, takingAmount string) (size, price float64) {
	making := rawAmountToUSD(makingAmount)
	taking := rawAmountToUSD(takingAmount)

	if order.Side == types.SideBuy {
		// Bought `taking` tokens for `making` USDC.
		size = taking
		if taking > 0 {
			price = making / taking
		}
	} else {
		// Sold `making` tokens for `taking` USDC.
		size = making
		if making > 0 {
			price = taking / making
		}
	}

	if price == 0 {
		price = order.PriceLimit
	}

	return size, price
}

func usdToRawAmount(usd float64) string {
	rawAmount := int64(usd * 1000000)
	return fmt.Sprintf("%d", rawAmount)
}

func rawAmountToUSD(raw string) float64 {
	if raw == "" {
		return 0
	}

	v, ok := new(big.Float).SetString(raw)
	if !ok {
		return 0
	}

	out, _ := new(big.Float).Quo(v, big.NewFloat(1000000)).Float64()
	return out
}
