package chain

// Zcash and its forks share t-address prefixes (t1... / t3...).
var zcashCoins = []Params{
	{
		Symbol:        "ZEC",
		Name:          "zcash",
		AddressPrefix: []byte{0x1c, 0xb8},
		ScriptPrefix:  []byte{0x1c, 0xbd},
		SecretPrefix:  []byte{0x80},
		APIs:          []string{"https://zcash.blockexplorer.com/api"},
	},
	{
		Symbol:        "ZCL",
		Name:          "zclassic",
		AddressPrefix: []byte{0x1c, 0xb8},
		ScriptPrefix:  []byte{0x1c, 0xbd},
		SecretPrefix:  []byte{0x80},
		APIs:          []string{"http://explorer.zclmine.pro/insight-api-zcash"},
	},
	{
		Symbol:             "ZEN",
		Name:               "zen cash",
		AddressPrefix:      []byte{0x20, 0x89}, // zn...
		ScriptPrefix:       []byte{0x1c, 0xbd},
		SecretPrefix:       []byte{0x80},
		CheckBlockAtHeight: true,
		APIs:               []string{"https://explorer.zensystem.io/insight-api-zen"},
	},
	{
		Symbol:        "ZERO",
		Name:          "zero",
		AddressPrefix: []byte{0x1c, 0xb8},
		ScriptPrefix:  []byte{0x1c, 0xbd},
		SecretPrefix:  []byte{0x80},
		APIs: []string{
			"https://zero-insight.mining4.co.uk/insight-api-zcash",
			"https://zeroapi.cryptonode.cloud",
		},
	},
	{
		Symbol:        "BTCZ",
		Name:          "bitcoinz",
		AddressPrefix: []byte{0x1c, 0xb8},
		ScriptPrefix:  []byte{0x1c, 0xbd},
		SecretPrefix:  []byte{0x80},
		APIs:          []string{"https://explorer.btcz.rocks/api"},
	},
	{
		Symbol:        "BUCK",
		Name:          "buck",
		AddressPrefix: []byte{0x1c, 0xb8},
		ScriptPrefix:  []byte{0x1c, 0xbd},
		SecretPrefix:  []byte{0x80},
	},
	{
		Symbol:        "HUSH",
		Name:          "hush",
		AddressPrefix: []byte{0x1c, 0xb8},
		ScriptPrefix:  []byte{0x1c, 0xbd},
		SecretPrefix:  []byte{0x80},
		APIs:          []string{"https://explorer.myhush.org/api"},
	},
	{
		Symbol:        "VOT",
		Name:          "votecoin",
		AddressPrefix: []byte{0x1c, 0xb8},
		ScriptPrefix:  []byte{0x1c, 0xbd},
		SecretPrefix:  []byte{0x80},
		APIs:          []string{"http://explorer.votecoin.site/insight-api-zcash"},
	},
	{
		Symbol:        "XSG",
		Name:          "snowgem",
		AddressPrefix: []byte{0x1c, 0x28}, // s1...
		ScriptPrefix:  []byte{0x1c, 0x2d},
		SecretPrefix:  []byte{0x80},
		APIs:          []string{"https://insight.snowgem.org/api"},
	},
	{
		Symbol:        "LTZ",
		Name:          "litecoinz",
		AddressPrefix: []byte{0x0a, 0xb3},
		ScriptPrefix:  []byte{0x0a, 0xb8},
		SecretPrefix:  []byte{0xb0},
	},
}
