package manipulation

import (
	"gopkg.in/yaml.v3"
)

const (
	DefaultPricePostfix    = "Price"
	DefaultDiscountPostfix = "Discount"
)

// Config is the configuration of the entry_manipulation plugin:
//
//	{'manipulators': [{'type': 'posting-spreader', 'metadata-name-spread-source-id': 'spread-source-id'}]}
type Config struct {
	Manipulators []ManipulatorConfig `yaml:"manipulators"`
}

// ManipulatorConfig is one entry of the manipulators list. The fields besides type are
// decoded once the type is known.
type ManipulatorConfig struct {
	Type string

	node yaml.Node
}

func (m *ManipulatorConfig) UnmarshalYAML(value *yaml.Node) error {
	var head struct {
		Type string `yaml:"type"`
	}
	if err := value.Decode(&head); err != nil {
		return err
	}

	m.Type = head.Type
	m.node = *value
	return nil
}

// Decode decodes the manipulator specific fields into out.
func (m ManipulatorConfig) Decode(out interface{}) error {
	if m.node.Kind == 0 {
		return nil
	}
	return m.node.Decode(out)
}

type TransactionSplitterConfig struct {
	MetadataNameDate            string  `yaml:"metadata-name-date"`
	MetadataNameTransferAccount string  `yaml:"metadata-name-transfer-account"`
	TransferAccount             string  `yaml:"transfer-account"`
	Account                     string  `yaml:"account"`
	DatedPostingMoveMode        string  `yaml:"dated-posting-move-mode"`
	StayedNarration             *string `yaml:"stayed-narration"`
	MovedNarration              *string `yaml:"moved-narration"`
	MetadataNameMovedNarration  string  `yaml:"metadata-name-moved-narration"`
}

type SpreaderConfig struct {
	Roundings                        map[string]int32 `yaml:"roundings"`
	ConsolidatePriceAccountPostfix   string           `yaml:"consolidate-price-account-postfix"`
	SpreadBase                       string           `yaml:"spread-base"`
	MetadataNameSpreadBase           string           `yaml:"metadata-name-spread-base"`
	MetadataNameSpreadSourceID       string           `yaml:"metadata-name-spread-source-id"`
	MetadataNameSpreadTargetID       string           `yaml:"metadata-name-spread-target-id"`
	MatchMode                        string           `yaml:"match-mode"`
	MetadataNameSpreadAccountPostfix string           `yaml:"metadata-name-spread-account-postfix"`
}

type FillerConfig struct {
	Roundings                map[string]int32 `yaml:"roundings"`
	MetadataNameFillBase     string           `yaml:"metadata-name-fill-base"`
	MetadataNameFillSourceID string           `yaml:"metadata-name-fill-source-id"`
	MetadataNameFillTargetID string           `yaml:"metadata-name-fill-target-id"`
}

type OriginalPriceConfig struct {
	MetadataNameOriginalPrice         string `yaml:"metadata-name-original-price"`
	ConsolidatePriceAccountPostfix    string `yaml:"consolidate-price-account-postfix"`
	ConsolidateDiscountAccountPostfix string `yaml:"consolidate-discount-account-postfix"`
}

type DiscounterConfig struct {
	MetadataNameDiscount              string `yaml:"metadata-name-discount"`
	ConsolidatePriceAccountPostfix    string `yaml:"consolidate-price-account-postfix"`
	ConsolidateDiscountAccountPostfix string `yaml:"consolidate-discount-account-postfix"`
}

type PostingSplitterConfig struct {
	MetadataNameType                  string           `yaml:"metadata-name-type"`
	MetadataNameSkipSplit             string           `yaml:"metadata-name-skip-split"`
	MetadataNameUnit                  string           `yaml:"metadata-name-unit"`
	MetadataNameExchangeRate          string           `yaml:"metadata-name-exchange-rate"`
	MetadataNameSplitRatio            string           `yaml:"metadata-name-split-ratio"`
	Roundings                         map[string]int32 `yaml:"roundings"`
	ConsolidatePriceAccountPostfix    string           `yaml:"consolidate-price-account-postfix"`
	ConsolidateDiscountAccountPostfix string           `yaml:"consolidate-discount-account-postfix"`
}

// factories builds a manipulator from its configuration, keyed by type.
var factories = map[string]func(ManipulatorConfig, Options) (Manipulator, error){
	TypeTransactionSplitter: func(c ManipulatorConfig, _ Options) (Manipulator, error) {
		var cfg TransactionSplitterConfig
		if err := c.Decode(&cfg); err != nil {
			return nil, err
		}
		return NewTransactionSplitter(cfg)
	},
	TypeOriginalPrice: func(c ManipulatorConfig, _ Options) (Manipulator, error) {
		var cfg OriginalPriceConfig
		if err := c.Decode(&cfg); err != nil {
			return nil, err
		}
		return NewOriginalPrice(cfg)
	},
	TypeDiscounter: func(c ManipulatorConfig, _ Options) (Manipulator, error) {
		var cfg DiscounterConfig
		if err := c.Decode(&cfg); err != nil {
			return nil, err
		}
		return NewDiscounter(cfg)
	},
	TypeSpreader: func(c ManipulatorConfig, opts Options) (Manipulator, error) {
		var cfg SpreaderConfig
		if err := c.Decode(&cfg); err != nil {
			return nil, err
		}
		return NewSpreader(cfg, opts)
	},
	TypeFiller: func(c ManipulatorConfig, opts Options) (Manipulator, error) {
		var cfg FillerConfig
		if err := c.Decode(&cfg); err != nil {
			return nil, err
		}
		return NewFiller(cfg, opts)
	},
	TypePostingSplitter: func(c ManipulatorConfig, _ Options) (Manipulator, error) {
		var cfg PostingSplitterConfig
		if err := c.Decode(&cfg); err != nil {
			return nil, err
		}
		return NewPostingSplitter(cfg)
	},
}

// Types returns the known manipulator types.
func Types() []string {
	return []string{
		TypeTransactionSplitter,
		TypeOriginalPrice,
		TypeDiscounter,
		TypeSpreader,
		TypeFiller,
		TypePostingSplitter,
	}
}
