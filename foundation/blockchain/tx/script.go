package tx

import "strings"

// ScriptKind identifies the locking script template of an output.
type ScriptKind uint8

// Set of script kinds the block builder knows about. Anything else is
// recorded as KindOther.
const (
	KindOther ScriptKind = iota
	KindP2WPKH
	KindP2TR
	KindP2SH
)

// Names used by the mempool files for each kind.
var kindNames = map[ScriptKind]string{
	KindOther:  "other",
	KindP2WPKH: "v0_p2wpkh",
	KindP2TR:   "v1_p2tr",
	KindP2SH:   "p2sh",
}

// ParseScriptKind maps a mempool script type name to a kind. Unknown names
// are not an error, they map to KindOther.
func ParseScriptKind(name string) ScriptKind {
	switch strings.ToLower(name) {
	case "v0_p2wpkh", "p2wpkh":
		return KindP2WPKH
	case "v1_p2tr", "p2tr":
		return KindP2TR
	case "p2sh":
		return KindP2SH
	}

	return KindOther
}

// String implements the fmt.Stringer interface.
func (k ScriptKind) String() string {
	name, exists := kindNames[k]
	if !exists {
		return kindNames[KindOther]
	}
	return name
}

// MarshalText implements the encoding.TextMarshaler interface.
func (k ScriptKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (k *ScriptKind) UnmarshalText(text []byte) error {
	*k = ParseScriptKind(string(text))
	return nil
}
