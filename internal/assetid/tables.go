package assetid

import "strings"

// chainIDToName resolves the numeric chain ids used by the nep245 Omni
// protocol to chain names.
var chainIDToName = map[string]string{
	"1":     "ETH",
	"10":    "OP",
	"56":    "BNB",
	"137":   "POLYGON",
	"143":   "BERACHAIN",
	"196":   "XLAYER",
	"1100":  "VELAS",
	"1117":  "XDAI",
	"9745":  "RARI",
	"43114": "AVAX",
}

type lookupKey struct {
	chain   string // uppercased
	address string // lowercased, native markers normalized
}

type tokenMapping struct {
	Chain   string
	Symbol  string
	Address string
}

// tokenMappings is the static (chain, address) -> symbol reference table.
// Addresses are stored in their upstream casing; the lookup index lowercases
// them.
var tokenMappings = []tokenMapping{
	{Chain: "BNB", Symbol: "BNB", Address: "native"},
	{Chain: "SOL", Symbol: "SOL", Address: "native"},
	{Chain: "BASE", Symbol: "ETH", Address: "native"},
	{Chain: "ARB", Symbol: "ETH", Address: "native"},
	{Chain: "NEAR", Symbol: "NEAR", Address: "17208628f84f5d6ad33f0da3bbbeb27ffcb398eac501a31bd6ad2011e36133a1"},
	{Chain: "NEAR", Symbol: "WNEAR", Address: "wrap.near"},
	{Chain: "POLYGON", Symbol: "USDC", Address: "0x3c499c542cef5e3811e1192ce70d8cc03d5c3359"},
	{Chain: "BNB", Symbol: "USDT", Address: "0x55d398326f99059ff775485246999027b3197955"},
	{Chain: "ETH", Symbol: "AURORA", Address: "0xaaaaaa20d9e0e2461697782ef11675f668207961"},
	{Chain: "BTC", Symbol: "BTC", Address: "native"},
	{Chain: "SOL", Symbol: "cbBTC", Address: "c800a4bd850783ccb82c2b2c7e84175443606352"},
	{Chain: "ETH", Symbol: "USDT", Address: "0xdac17f958d2ee523a2206206994597c13d831ec7"},
	{Chain: "XRP", Symbol: "XRP", Address: "native"},
	{Chain: "ETH", Symbol: "ETH", Address: "native"},
	{Chain: "SOL", Symbol: "HYPE", Address: "5ce3bf3a31af18be40ba30f721101b4341690186"},
	{Chain: "ARB", Symbol: "USDC", Address: "0xaf88d065e77c8cc2239327c5edb3a432268e5831"},
	{Chain: "XDAI", Symbol: "XDAI", Address: "native"},
	{Chain: "NEAR", Symbol: "SWEAT", Address: "token.sweat"},
	{Chain: "TRON", Symbol: "TRX", Address: "native"},
	{Chain: "TRON", Symbol: "USDT", Address: "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"},
	{Chain: "POLYGON", Symbol: "USDT", Address: "0xc2132d05d31c914a87c6611c10748aeb04b58e8f"},
	{Chain: "BASE", Symbol: "USDC", Address: "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913"},
	{Chain: "NEAR", Symbol: "USDt", Address: "usdt.tether-token.near"},
	{Chain: "AVAX", Symbol: "AVAX", Address: "native"},
	{Chain: "AVAX", Symbol: "USDC", Address: "0xb97ef9ef8734c71904d8002f8b6bc66dd9c48a6e"},
	{Chain: "BCH", Symbol: "BCH", Address: "native"},
	{Chain: "ETH", Symbol: "USDC", Address: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"},
	{Chain: "BNB", Symbol: "USDC", Address: "0x8ac76a51cc950d9822d68b83fe1ad97b32cd580d"},
	{Chain: "XDAI", Symbol: "GNO", Address: "0x9c58bacc331c9aa871afd802db6379a98e80cedb"},
	{Chain: "GNOSIS", Symbol: "USDC", Address: "0x4ecaba5870353805a9f068101a40e0f32ed605c6"},
	{Chain: "ZEC", Symbol: "ZEC", Address: "native"},
	{Chain: "AVAX", Symbol: "USDT", Address: "0x9702230a8ea53601f5cd2dc00fdbc13d4df4a8c7"},
	{Chain: "POLYGON", Symbol: "MATIC", Address: "native"},
	{Chain: "OP", Symbol: "USDC", Address: "0x0b2c639c533813f4aa9d7837caf62653d097ff85"},
	{Chain: "LTC", Symbol: "LTC", Address: "native"},
	{Chain: "OP", Symbol: "USDT", Address: "0x94b008aa00579c1307b0ef2c499ad98a8ce58e58"},
	{Chain: "VELAS", Symbol: "VLX", Address: "native"},
	{Chain: "ETH", Symbol: "DAI", Address: "0x6b175474e89094c44da98b954eedeac495271d0f"},
	{Chain: "ETH", Symbol: "SHIB", Address: "0x95ad61b0a150d79219dcf64e1e6cc01f0b64c4ce"},
	{Chain: "NEAR", Symbol: "ETH", Address: "eth.bridge.near"},
	{Chain: "GNOSIS", Symbol: "USDT", Address: "0x2a22f9c3b484c3629090feed35f17ff8f88f76f0"},
	{Chain: "BERA", Symbol: "BERA", Address: "native"},
	{Chain: "OP", Symbol: "ETH", Address: "native"},
	{Chain: "BASE", Symbol: "cbBTC", Address: "0xcbb7c0000ab88b473b1f5afd9ef808440eed33bf"},
	{Chain: "BASE", Symbol: "USDz", Address: "0x227d920e20ebac8a40e7d6431b7d724bb64d7245"},
	{Chain: "BERACHAIN", Symbol: "BERA", Address: "native"},
	{Chain: "ARB", Symbol: "ARB", Address: "0x912ce59144191c1204e64559fe8253a0e49e6548"},
	{Chain: "ARB", Symbol: "USDT", Address: "0xfd086bc7cd5c481dcc9c85ebe478a1c0b69fcbb9"},
	{Chain: "DOGE", Symbol: "DOGE", Address: "native"},
	{Chain: "BNB", Symbol: "BTCB", Address: "0x7130d2a12b9bcbfae4f2634d864a1ee1ce3ead9c"},
	{Chain: "BNB", Symbol: "CAKE", Address: "0x0e09fabb73bd3ade0a17ecc321fd13a19e81ce82"},
	{Chain: "BERACHAIN", Symbol: "HONEY", Address: "0x0e4aaf1351de4c0264c5c7056ef3777b41bd8e03"},
	{Chain: "GNOSIS", Symbol: "xDAI", Address: "native"},
	{Chain: "SOL", Symbol: "RAY", Address: "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"},
	{Chain: "APTOS", Symbol: "zUSDC", Address: "0xf22bede237a07e121b56d91a491eb7bcdfd1f5907926a9e58338f964a01b17fa::asset::USDC"},
	{Chain: "BNB", Symbol: "ETH", Address: "0x2170ed0880ac9a755fd29b2688956bd959f933f8"},
	{Chain: "ETH", Symbol: "NEIRO", Address: "0xdef1b2d939edc0e4d35806c59b3166f790175afe"},
	{Chain: "NEAR", Symbol: "PAI", Address: "token.publicailab.near"},
	{Chain: "ETH", Symbol: "cbBTC", Address: "0xcbb7c0000ab88b473b1f5afd9ef808440eed33bf"},
	{Chain: "NEAR", Symbol: "NPRO", Address: "npro.nearmobile.near"},
	{Chain: "SOL", Symbol: "RENDER", Address: "rndrizKT3MK1iimdxRdWabcF7Zg7AR5T4nud4EkHBof"},
	{Chain: "NEAR", Symbol: "RHEA", Address: "token.rhealab.near"},
	{Chain: "BERACHAIN", Symbol: "YEET", Address: "0x1740f679325ef3686b2f574e392007a92e4bed41"},
	{Chain: "ETH", Symbol: "WBTC", Address: "0x2260fac5e5542a773aa44fbcfedf7c193bc2c599"},
	{Chain: "SUI", Symbol: "SUI", Address: "native"},
	{Chain: "GNOSIS", Symbol: "WETH", Address: "0x6a023ccd1ff6f2045c3309768ead9e68f978f6e1"},
	{Chain: "VELAS", Symbol: "USDV", Address: "0x01445c31581c354b7338ac35693ab2001b50b9ae"},
	{Chain: "RARI", Symbol: "ETH", Address: "native"},
	{Chain: "GNOSIS", Symbol: "GNO", Address: "0x9c58bacc331c9aa871afd802db6379a98e80cedb"},
	{Chain: "NEAR", Symbol: "BLACKDRAGON", Address: "blackdragon.tkn.near"},
	{Chain: "RARI", Symbol: "USDC", Address: "0xa219439258ca9da29e9cc4ce5596924745e12b93"},
	{Chain: "GNOSIS", Symbol: "COW", Address: "0x177127622c4a00f3d409b75571e12cb3c8973d3c"},
	{Chain: "SOL", Symbol: "PYTH", Address: "HZ1JovNiVvGrGNiiYvEozEVgZ58xaU3RKwX8eACQBCt3"},
	{Chain: "ETH", Symbol: "SWARMS", Address: "0xb4b9dc1c77bdbb135ea907fd5a08094d98883a35"},
	{Chain: "SUI", Symbol: "USDC", Address: "0x5d4b302506645c37ff133b98c4b50a5ae14841659738d6d733d59d0d217a93bf::coin::COIN"},
	{Chain: "ETH", Symbol: "PEPE", Address: "0x6982508145454ce325ddbe47a25d4ec3d2311933"},
	{Chain: "NEAR", Symbol: "nBTC", Address: "nbtc.bridge.near"},
	{Chain: "NEAR", Symbol: "SHITZU", Address: "token.0xshitzu.near"},
	{Chain: "BNB", Symbol: "FDUSD", Address: "0xc5f0f7b66764f6ec8c8dff7ba683102295e16409"},
	{Chain: "NEAR", Symbol: "MPDA", Address: "mpdao-token.near"},
	{Chain: "ARB", Symbol: "PEAS", Address: "0xca7dec8550f43a5e46e3dfb95801f64280e75b27"},
	{Chain: "BERA", Symbol: "HONEY", Address: "0x779ded0c9e1022225f8e0630b35a9b54be713736"},
	{Chain: "CARDANO", Symbol: "ADA", Address: "native"},
	{Chain: "GNOSIS", Symbol: "WXDAI", Address: "0x5cb9073902f2035222b9749f8fb0c9bfe5527108"},
	{Chain: "BASE", Symbol: "BASED", Address: "0x0382e3fee4a420bd446367d468a6f00225853420"},
	{Chain: "GNOSIS", Symbol: "sDAI", Address: "0x420ca0f9b9b604ce0fd9c18ef134c705e5fa3430"},
	{Chain: "APTOS", Symbol: "APT", Address: "native"},
	{Chain: "ETH", Symbol: "SMR", Address: "0x8b1484d57abbe239bb280661377363b03c89caea"},
	{Chain: "BASE", Symbol: "VIRTUAL", Address: "0x98d0baa52b2d063e780de12f615f963fe8537553"},
	{Chain: "STARKNET", Symbol: "STRK", Address: "native"},
	{Chain: "XLAYER", Symbol: "USDT", Address: "0x1e4a5963abfd975d8c9021ce480b42188849d41d"},
	{Chain: "NEAR", Symbol: "ITLX", Address: "itlx.intellex_xyz.near"},
	{Chain: "ETH", Symbol: "SPX", Address: "0xe0f63a424a4439cbe457d80e4f4b51ad25b2c56c"},
	{Chain: "NEAR", Symbol: "JAMBO", Address: "jambo-1679.meme-cooking.near"},
	{Chain: "XLAYER", Symbol: "ETH", Address: "native"},
	{Chain: "NEAR", Symbol: "CFI", Address: "cfi.consumer-fi.near"},
	{Chain: "SOL", Symbol: "JTO", Address: "jtojtomepa8beP8AuQc6eXt5FriJwfFMwQx2v2f9mCL"},
	// Bridge tokens on NEAR keep the .factory.bridge.near suffix in their address.
	{Chain: "NEAR", Symbol: "AURORA", Address: "aaaaaa20d9e0e2461697782ef11675f668207961.factory.bridge.near"},
	// TRON USDT uses a different address format when OMFT-bridged.
	{Chain: "TRON", Symbol: "USDT", Address: "d28a265909efecdcee7c5028585214ea0b96f015"},
}

// tokenLookup is the precomputed lookup index, built once at startup.
var tokenLookup = buildTokenLookup()

func buildTokenLookup() map[lookupKey]string {
	lookup := make(map[lookupKey]string, len(tokenMappings))
	for _, m := range tokenMappings {
		lookup[lookupKey{chain: strings.ToUpper(m.Chain), address: strings.ToLower(m.Address)}] = m.Symbol
	}
	return lookup
}

// Stablecoins holds the symbols treated as stablecoins for display grouping.
// Matching is case-insensitive; keys are stored uppercased.
var Stablecoins = map[string]struct{}{
	"USDT": {}, "USDC": {}, "DAI": {}, "USDD": {}, "TUSD": {}, "BUSD": {},
	"FRAX": {}, "USDP": {}, "GUSD": {}, "USDS": {}, "USDM": {}, "USDJ": {},
	"USDN": {}, "USDX": {}, "USDK": {}, "USDZ": {}, "USDSM": {}, "FDUSD": {},
	"PYUSD": {}, "EURC": {}, "EURT": {}, "EURS": {}, "SDAI": {}, "CUSD": {},
	"CEUR": {},
}

// IsStablecoin reports whether the symbol is a known stablecoin.
func IsStablecoin(symbol string) bool {
	_, ok := Stablecoins[strings.ToUpper(symbol)]
	return ok
}

type routePair struct {
	from string
	to   string
}

// zeroFeeRoutes is the static allow-list of same-token routes where the
// bridge charges no fee. Reference data only; never derived from
// transactions. Keyed by uppercased symbol and the parser's chain codes.
var zeroFeeRoutes = map[string]map[routePair]struct{}{
	"USDC": buildRouteMesh("ETH", "ARB", "BASE", "OP", "POLYGON", "AVAX", "SOL"),
	"USDT": buildRouteMesh("ETH", "ARB", "OP", "BNB", "AVAX", "TRON"),
}

// buildRouteMesh returns every ordered pair of distinct chains.
func buildRouteMesh(chains ...string) map[routePair]struct{} {
	mesh := make(map[routePair]struct{}, len(chains)*(len(chains)-1))
	for _, from := range chains {
		for _, to := range chains {
			if from != to {
				mesh[routePair{from: from, to: to}] = struct{}{}
			}
		}
	}
	return mesh
}

// IsZeroFeeRoute reports whether bridging symbol from fromChain to toChain is
// on the zero-fee allow-list. Zero-fee bridging only applies to same-token
// transfers, so callers pass a single symbol.
func IsZeroFeeRoute(symbol, fromChain, toChain string) bool {
	mesh, ok := zeroFeeRoutes[strings.ToUpper(symbol)]
	if !ok {
		return false
	}
	_, ok = mesh[routePair{from: strings.ToUpper(fromChain), to: strings.ToUpper(toChain)}]
	return ok
}
