package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/dex-proxy/internal/amm"
	"github.com/aman-zulfiqar/dex-proxy/internal/config"
	"github.com/aman-zulfiqar/dex-proxy/internal/constants"
	"github.com/aman-zulfiqar/dex-proxy/internal/fees"
	"github.com/aman-zulfiqar/dex-proxy/internal/ledger"
	"github.com/aman-zulfiqar/dex-proxy/internal/proxy"
	"github.com/aman-zulfiqar/dex-proxy/internal/router"
	"github.com/aman-zulfiqar/dex-proxy/internal/server"
)

func loadEnv() {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))
}

func main() {
	loadEnv()

	mode := flag.String("mode", "split", "split | calldata | simulate | sign")
	output := flag.String("output", "100000", "swap output to split (split mode)")
	fee := flag.Uint64("fee", 75, "integrator fee value")
	withPromoter := flag.Bool("promoter", false, "use the promoter split")
	method := flag.String("method", router.MethodSwapExactTokensForTokens, "router method (calldata mode)")
	amountIn := flag.String("amount-in", "1000000", "input amount")
	minOut := flag.String("min-out", "0", "minimum output (calldata mode)")
	path := flag.String("path", "", "comma separated token path (calldata mode)")
	to := flag.String("to", "", "output recipient, normally the proxy address (calldata mode)")
	httpMethod := flag.String("http-method", "POST", "request method (sign mode)")
	uri := flag.String("uri", "/v1/swap", "request URI (sign mode)")
	body := flag.String("body", "", "exact request body (sign mode)")
	slippageBps := flag.Int("slippage-bps", int(constants.DefaultSlippageBps), "slippage in bps (simulate mode)")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Println("invalid configuration:", err)
		os.Exit(2)
	}

	var err error
	switch *mode {
	case "split":
		err = runSplit(cfg, *output, *fee, *withPromoter)
	case "calldata":
		err = runCalldata(*method, *amountIn, *minOut, *path, *to)
	case "simulate":
		err = runSimulate(cfg, *amountIn, *fee, *withPromoter, uint16(*slippageBps))
	case "sign":
		err = runSign(os.Getenv("SIGNER_KEY"), *httpMethod, *uri, *body)
	default:
		fmt.Println("invalid -mode (use split|calldata|simulate|sign)")
		os.Exit(2)
	}
	if err != nil {
		fmt.Println(*mode, "failed:", err)
		os.Exit(1)
	}
}

func parseInt(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 0)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return n, nil
}

func runSplit(cfg *config.Config, output string, fee uint64, withPromoter bool) error {
	out, err := parseInt(output)
	if err != nil {
		return err
	}
	params := fees.Params{
		FeeDivisor:          constants.FeeDivisor,
		PromoterFee:         cfg.PromoterFee,
		ProviderBaseFee:     cfg.ProviderBaseFee,
		ProviderDiscountFee: cfg.ProviderDiscountFee,
		ProviderFeeTarget:   common.HexToAddress(cfg.ProviderFeeTarget),
	}
	s, err := params.Split(sdkmath.NewIntFromBigInt(out), fee, withPromoter)
	if err != nil {
		return err
	}
	fmt.Printf("output=%s provider=%s promoter=%s integrator=%s caller=%s total_fee=%s\n",
		s.Output, s.Provider, s.Promoter, s.Integrator, s.Caller, s.Fee())
	return nil
}

func parsePath(s string) ([]common.Address, error) {
	var out []common.Address
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if !common.IsHexAddress(p) {
			return nil, fmt.Errorf("invalid path element %q", p)
		}
		out = append(out, common.HexToAddress(p))
	}
	return out, nil
}

func runCalldata(method, amountIn, minOut, path, to string) error {
	tokens, err := parsePath(path)
	if err != nil {
		return err
	}
	if !common.IsHexAddress(to) {
		return fmt.Errorf("invalid -to %q", to)
	}
	in, err := parseInt(amountIn)
	if err != nil {
		return err
	}
	minimum, err := parseInt(minOut)
	if err != nil {
		return err
	}
	deadline := big.NewInt(time.Now().Add(constants.RouterDeadline).Unix())
	recipient := common.HexToAddress(to)

	var data []byte
	switch method {
	case router.MethodSwapExactETHForTokens:
		data, err = router.PackSwapExactETHForTokens(minimum, tokens, recipient, deadline)
	case router.MethodSwapExactTokensForETH:
		data, err = router.PackSwapExactTokensForETH(in, minimum, tokens, recipient, deadline)
	case router.MethodSwapExactTokensForTokens:
		data, err = router.PackSwapExactTokensForTokens(in, minimum, tokens, recipient, deadline)
	default:
		return fmt.Errorf("unsupported method %q", method)
	}
	if err != nil {
		return err
	}
	fmt.Println(hexutil.Encode(data))
	return nil
}

// runSimulate swaps native for a token through the proxy on a fresh ledger
// seeded with one pool, then prints the receipt.
func runSimulate(cfg *config.Config, amountIn string, fee uint64, withPromoter bool, slippageBps uint16) error {
	ctx := context.Background()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	amount, err := parseInt(amountIn)
	if err != nil {
		return err
	}
	dexes := cfg.DexAddresses()
	if len(dexes) == 0 {
		return fmt.Errorf("no routers configured for chain %q", cfg.Chain)
	}

	var (
		proxyAddr  = common.HexToAddress(cfg.ProxyAddress)
		routerAddr = dexes[0]
		wrapped    = common.HexToAddress(cfg.WrappedNative)
		token      = common.HexToAddress("0x55d398326f99059fF775485246999027B3197955")
		trader     = common.HexToAddress("0x000000000000000000000000000000000000c0de")
		integrator = common.HexToAddress("0x000000000000000000000000000000000000beef")
		promoter   = common.HexToAddress("0x000000000000000000000000000000000000f00d")
		reserve    = new(big.Int).Exp(big.NewInt(10), big.NewInt(24), nil)
	)

	l := ledger.New(ledger.Config{Logger: logger})
	dex := router.NewUniswapV2(routerAddr, wrapped)
	if err := l.Deploy(routerAddr, dex); err != nil {
		return err
	}
	if err := l.CreateToken(ctx, token, ledger.Token{Symbol: "USDT", Decimals: 18}); err != nil {
		return err
	}

	var quote []*big.Int
	err = l.Execute(ctx, func(tx *ledger.Tx) error {
		if err := dex.AddLiquidity(tx, wrapped, token, reserve, reserve); err != nil {
			return err
		}
		if err := tx.Mint(ledger.NativeAsset, trader, amount); err != nil {
			return err
		}
		var err error
		quote, err = dex.GetAmountsOut(tx, amount, []common.Address{wrapped, token})
		return err
	})
	if err != nil {
		return err
	}
	expected := quote[len(quote)-1]

	data, err := router.PackSwapExactETHForTokens(
		amm.ApplySlippage(expected, slippageBps),
		[]common.Address{wrapped, token},
		proxyAddr,
		big.NewInt(time.Now().Add(constants.RouterDeadline).Unix()),
	)
	if err != nil {
		return err
	}

	pcfg := proxy.DefaultConfig()
	pcfg.Address = proxyAddr
	pcfg.Owner = common.HexToAddress(cfg.Owner)
	pcfg.PromoterFee = cfg.PromoterFee
	pcfg.ProviderBaseFee = cfg.ProviderBaseFee
	pcfg.ProviderDiscountFee = cfg.ProviderDiscountFee
	pcfg.ProviderFeeTarget = common.HexToAddress(cfg.ProviderFeeTarget)
	pcfg.AvailableFeeValues = append(cfg.AvailableFeeValues, fee)
	pcfg.Dexes = []common.Address{routerAddr}
	pcfg.Logger = logger
	engine, err := proxy.New(l, pcfg)
	if err != nil {
		return err
	}

	req := proxy.SwapRequest{
		FromToken:     ledger.NativeAsset,
		ToToken:       token,
		Amount:        amount,
		Router:        routerAddr,
		Data:          data,
		IntegratorFee: proxy.IntegratorFee{Fee: fee, FeeTarget: integrator},
	}
	var res *proxy.SwapResult
	if withPromoter {
		res, err = engine.SwapWithPromoter(ctx, trader, amount, req, promoter)
	} else {
		res, err = engine.Swap(ctx, trader, amount, req)
	}
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(res.Receipt, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	fmt.Printf("price_impact=%.6f\n", amm.PriceImpact(amount, res.Split.Output.BigInt(), reserve, reserve))
	return nil
}

// runSign prints the headers that authenticate one API request as the
// SIGNER_KEY address.
func runSign(keyHex, method, uri, body string) error {
	if keyHex == "" {
		return fmt.Errorf("SIGNER_KEY is not set")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return fmt.Errorf("invalid SIGNER_KEY: %w", err)
	}
	ts := time.Now().Unix()
	sig, err := server.SignRequest(key, strings.ToUpper(method), uri, ts, []byte(body))
	if err != nil {
		return err
	}
	fmt.Println("# signer", crypto.PubkeyToAddress(key.PublicKey).Hex())
	fmt.Printf("%s: %d\n", server.TimestampHeader, ts)
	fmt.Printf("%s: %s\n", server.SignatureHeader, sig)
	return nil
}
