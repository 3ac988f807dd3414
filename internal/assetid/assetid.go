// Package assetid decodes the heterogeneous asset identifier strings emitted
// by the upstream bridging protocols into a normalized (chain, address,
// symbol) triple. Three incompatible grammars are supported; everything else
// in the system stays protocol-agnostic by going through Parse.
package assetid

import (
	"strings"
)

const (
	// UnknownSymbol is the sentinel returned when an identifier cannot be
	// resolved to a known token.
	UnknownSymbol = "UNKNOWN"

	// NativeAddress is the normalized address for a chain's native asset.
	NativeAddress = "native"

	prefixNEP141 = "nep141:"
	prefixNEP245 = "nep245:"
	prefix1CSV1  = "1cs_v1:"

	omftSuffix = ".omft.near"

	// nep245 encodes native assets as an all-ones placeholder address.
	nativePlaceholder = "11111111111111111111"
)

// Identity is the normalized result of parsing an asset identifier.
// Chain and Address are nil when the identifier does not carry them.
type Identity struct {
	Chain   *string
	Address *string
	Symbol  string
}

// Parse decodes an asset identifier. It never fails: empty or unrecognized
// input yields an Identity with nil chain/address and the UNKNOWN symbol.
func Parse(assetID string) Identity {
	switch {
	case assetID == "":
		return Identity{Symbol: UnknownSymbol}
	case strings.HasPrefix(assetID, prefixNEP245):
		return parseNEP245(assetID)
	case strings.HasPrefix(assetID, prefix1CSV1):
		return parse1CSV1(assetID)
	case strings.HasPrefix(assetID, prefixNEP141):
		return parseNEP141(assetID)
	default:
		return Identity{Symbol: UnknownSymbol}
	}
}

// parseNEP141 handles NEAR tokens in two shapes:
//   - OMFT-bridged: nep141:chain-address.omft.near or nep141:chain.omft.near
//   - native NEAR:  nep141:token.near (possibly dotted, e.g. usdt.tether-token.near)
func parseNEP141(assetID string) Identity {
	content := strings.TrimPrefix(assetID, prefixNEP141)

	var chain, address string
	if strings.HasSuffix(content, omftSuffix) {
		content = strings.TrimSuffix(content, omftSuffix)
		if idx := strings.Index(content, "-"); idx >= 0 {
			chain = content[:idx]
			address = content[idx+1:]
		} else {
			chain = content
			address = NativeAddress
		}
	} else {
		// No bridge suffix: a token living on NEAR itself.
		chain = "NEAR"
		address = content
	}

	return Identity{
		Chain:   &chain,
		Address: &address,
		Symbol:  lookupSymbol(chain, address),
	}
}

// parseNEP245 handles Omni protocol identifiers of the form
// nep245:v2_1.omni.hot.tg:{chainID}_{address}. The numeric chain id is
// resolved through the static chain-id table; unknown ids keep the address
// but yield no chain.
func parseNEP245(assetID string) Identity {
	lastColon := strings.LastIndex(assetID, ":")
	if lastColon == -1 {
		return Identity{Symbol: UnknownSymbol}
	}

	chainIDAddress := assetID[lastColon+1:]
	chainID, address, found := strings.Cut(chainIDAddress, "_")
	if !found {
		return Identity{Symbol: UnknownSymbol}
	}

	chain, ok := chainIDToName[chainID]
	if !ok {
		return Identity{Address: &address, Symbol: UnknownSymbol}
	}

	address = normalizeAddress(address)
	return Identity{
		Chain:   &chain,
		Address: &address,
		Symbol:  lookupSymbol(chain, address),
	}
}

// parse1CSV1 handles cross-chain swap identifiers of the form
// 1cs_v1:{chain}:{tokenType}:{address}. Addresses may themselves contain
// colons (object paths on Aptos/Sui), so everything past part 3 is rejoined.
func parse1CSV1(assetID string) Identity {
	parts := strings.Split(assetID, ":")
	if len(parts) < 4 {
		return Identity{Symbol: UnknownSymbol}
	}

	chain := strings.ToUpper(parts[1])
	address := strings.Join(parts[3:], ":")

	return Identity{
		Chain:   &chain,
		Address: &address,
		Symbol:  lookupSymbol(chain, address),
	}
}

// normalizeAddress maps native-token markers to the NativeAddress sentinel.
func normalizeAddress(address string) string {
	if address == "" || address == nativePlaceholder {
		return NativeAddress
	}
	return address
}

// lookupSymbol resolves a symbol from the static token table. The table is
// keyed by (chain uppercased, address lowercased); addresses are normalized
// before the lookup so native markers hit the "native" entries.
func lookupSymbol(chain, address string) string {
	if chain == "" {
		return UnknownSymbol
	}

	key := lookupKey{
		chain:   strings.ToUpper(chain),
		address: strings.ToLower(normalizeAddress(address)),
	}
	if symbol, ok := tokenLookup[key]; ok {
		return symbol
	}
	return UnknownSymbol
}
