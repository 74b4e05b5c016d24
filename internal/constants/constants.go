package constants

import "time"

// FeeDivisor is the denominator every fee rate is expressed against.
// One unit = 0.001% of the swap output.
const FeeDivisor uint64 = 100000

// Production fee defaults
const (
	ProdProviderBaseFee     uint64 = 225 // 0.225%
	ProdProviderDiscountFee uint64 = 50  // 0.05%
	ProdPromoterFee         uint64 = 150 // 0.15%
)

// ProdAvailableFeeValues are the integrator fee values enabled at deployment.
var ProdAvailableFeeValues = []uint64{75} // 0.075%

const (
	ProdProviderFeeTarget = "0x3483eD7d3444A311a7585F0e59C9A74d6C111218"
	ProdOwner             = "0x3483eD7d3444A311a7585F0e59C9A74d6C111218"
)

// Redis keys
const (
	RedisKeyRecentReceipts = "dexproxy:receipts:recent"
	RedisKeyState          = "dexproxy:state"
	RedisKeyFeeValues      = "dexproxy:state:fee_values"
	RedisKeyRouters        = "dexproxy:state:routers"
	RedisKeySignatures     = "dexproxy:sig:"
)

// Redis Pub/Sub channels
const (
	PubSubChannelReceipts = "dexproxy:receipts:live"
)

// Limits
const (
	MaxRecentReceipts = 100
)

// Router defaults
const (
	// RouterDeadline is how far ahead generated call data sets its deadline.
	RouterDeadline = 20 * time.Minute
	// DefaultSlippageBps is applied when building call data without an explicit minimum.
	DefaultSlippageBps uint16 = 100
)

// Routers lists the whitelisted router addresses per chain.
var Routers = map[string][]string{
	"bsc": {
		"0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506", // SUSHI
		"0x10ED43C718714eb63d5aA57B78B54704E256024E", // PANCAKE
		"0x1111111254fb6c44bAC0beD2854e76F90643097d", // 1INCH V4
	},
	"polygon": {
		"0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506", // SUSHI
		"0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff", // QUICKSWAP
		"0x1111111254fb6c44bAC0beD2854e76F90643097d", // 1INCH V4
	},
	"fantom": {
		"0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506", // SUSHI
		"0xF491e7B69E4244ad4002BC14e878a34207E38c29", // SPOOKYSWAP
		"0x16327E3FbDaCA3bcF7E38F5Af2599D2DDc33aE52", // SPIRITSWAP
	},
	"avalanche": {
		"0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506", // SUSHI
		"0xE54Ca86531e17Ef3616d22Ca28b0D458b6C89106", // PANGOLIN
		"0x60aE616a2155Ee3d9A68541Ba4544862310933d4", // JOE
	},
	"harmony": {
		"0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506", // SUSHI
		"0xf012702a5f0e54015362cBCA26a26fc90AA832a3", // VIPER
	},
	"moonriver": {
		"0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506", // SUSHI
	},
	"arbitrum": {
		"0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506", // SUSHI
		"0x1111111254fb6c44bAC0beD2854e76F90643097d", // 1INCH V4
	},
	"aurora": {
		"0xa3a1eF5Ae6561572023363862e238aFA84C72ef5", // WANNA SWAP
		"0x2CB45Edb4517d5947aFdE3BEAbF95A582506858B", // TRISOLARIS
	},
}
