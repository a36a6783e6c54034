package chain

// Bitcoin and the forks that kept its transaction format.
var bitcoinCoins = []Params{
	{
		Symbol:        "BTC",
		Name:          "bitcoin",
		AddressPrefix: []byte{0x00}, // 1...
		ScriptPrefix:  []byte{0x05}, // 3...
		SecretPrefix:  []byte{0x80}, // 5..., K..., L...
		Bech32HRP:     "bc",
		APIs:          []string{"https://insight.bitpay.com/api"},
	},
	{
		Symbol:        "TBTC",
		Name:          "bitcoin testnet",
		AddressPrefix: []byte{0x6f}, // m or n
		ScriptPrefix:  []byte{0xc4}, // 2...
		SecretPrefix:  []byte{0xef},
		Bech32HRP:     "tb",
		APIs:          []string{"https://test-insight.bitpay.com/api"},
	},
	{
		Symbol:        "BTCP",
		Name:          "bitcoin private",
		AddressPrefix: []byte{0x13, 0x25}, // b1...
		ScriptPrefix:  []byte{0x13, 0xaf},
		SecretPrefix:  []byte{0x80},
		SigHash:       0x41,
		APIs:          []string{"https://explorer.btcprivate.org/api"},
	},
	{
		Symbol:        "BTG",
		Name:          "bitcoin gold",
		AddressPrefix: []byte{0x26}, // G...
		ScriptPrefix:  []byte{0x17}, // A...
		SecretPrefix:  []byte{0x80},
		Bech32HRP:     "btg",
		SigHash:       0x41,
		APIs:          []string{"https://explorer.bitcoingold.org/insight-api"},
	},
	{
		Symbol:        "BTCH",
		Name:          "bitcoin hush",
		AddressPrefix: []byte{0x3c},
		ScriptPrefix:  []byte{0x55},
		SecretPrefix:  []byte{0xbc},
	},
	{
		Symbol:        "LTC",
		Name:          "litecoin",
		AddressPrefix: []byte{0x30}, // L...
		ScriptPrefix:  []byte{0x05},
		SecretPrefix:  []byte{0xb0},
		Bech32HRP:     "ltc",
		APIs:          []string{"https://insight.litecore.io/api"},
	},
	{
		Symbol:        "DOGE",
		Name:          "dogecoin",
		AddressPrefix: []byte{0x1e}, // D...
		ScriptPrefix:  []byte{0x16}, // 9 or A
		SecretPrefix:  []byte{0x9e},
	},
	{
		Symbol:        "DASH",
		Name:          "dash",
		AddressPrefix: []byte{0x4c}, // X...
		ScriptPrefix:  []byte{0x10}, // 7...
		SecretPrefix:  []byte{0xcc},
		APIs:          []string{"https://insight.dash.siampm.com/api"},
	},
	{
		Symbol:        "VTC",
		Name:          "vertcoin",
		AddressPrefix: []byte{0x47}, // V...
		ScriptPrefix:  []byte{0x05},
		SecretPrefix:  []byte{0x80},
		Bech32HRP:     "vtc",
	},
}
