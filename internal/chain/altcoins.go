package chain

var altCoins = []Params{
	{Symbol: "1337", Name: "elite", AddressPrefix: []byte{0x30}, ScriptPrefix: []byte{0x1c}, SecretPrefix: []byte{0x80}},
	{Symbol: "BITS", Name: "bitstar", AddressPrefix: []byte{0x19}, ScriptPrefix: []byte{0x08}, SecretPrefix: []byte{0x99}},
	{Symbol: "CRAVE", Name: "crave", AddressPrefix: []byte{0x46}, ScriptPrefix: []byte{0x55}, SecretPrefix: []byte{0x99}},
	{Symbol: "DMD", Name: "diamond", AddressPrefix: []byte{0x5a}, ScriptPrefix: []byte{0x08}, SecretPrefix: []byte{0xda}},
	{
		Symbol:        "KMD",
		Name:          "komodo",
		AddressPrefix: []byte{0x3c}, // R...
		ScriptPrefix:  []byte{0x55},
		SecretPrefix:  []byte{0xbc},
		APIs:          []string{"https://kmd.explorer.supernet.org/api"},
	},
	{Symbol: "MOON", Name: "mooncoin", AddressPrefix: []byte{0x03}, ScriptPrefix: []byte{0x32}, SecretPrefix: []byte{0x83}},
	{Symbol: "QTUM", Name: "qtum", AddressPrefix: []byte{0x3a}, ScriptPrefix: []byte{0x32}, SecretPrefix: []byte{0x80}, Bech32HRP: "qc"},
	{
		Symbol:        "SAFE",
		Name:          "safecoin",
		AddressPrefix: []byte{0x3d},
		ScriptPrefix:  []byte{0x56},
		SecretPrefix:  []byte{0xbd},
		APIs:          []string{"https://explorer.safecoin.org/api"},
	},
	{Symbol: "SIRX", Name: "sirius", AddressPrefix: []byte{0x3f}, ScriptPrefix: []byte{0x32}, SecretPrefix: []byte{0x80}},
	{Symbol: "SMART", Name: "smartcash", AddressPrefix: []byte{0x3f}, ScriptPrefix: []byte{0x12}, SecretPrefix: []byte{0xbf}},
	{Symbol: "UNIFY", Name: "unify", AddressPrefix: []byte{0x44}, ScriptPrefix: []byte{0x05}, SecretPrefix: []byte{0x80}},
	{Symbol: "UNO", Name: "unobtanium", AddressPrefix: []byte{0x82}, ScriptPrefix: []byte{0x1e}, SecretPrefix: []byte{0xe0}},
	// Proof-of-stake; transactions carry a timestamp.
	{Symbol: "ZEIT", Name: "zeit", AddressPrefix: []byte{0x33}, ScriptPrefix: []byte{0x08}, SecretPrefix: []byte{0x80}, Timestamped: true},
	{Symbol: "ZOIN", Name: "zoin", AddressPrefix: []byte{0x50}, ScriptPrefix: []byte{0x07}, SecretPrefix: []byte{0xd0}},
}
