package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LayoutVersion is the only supported layout file version.
const LayoutVersion = 1

// Layout describes which record fields are shown and how they are grouped.
type Layout struct {
	Version  int       `yaml:"version"`
	Title    string    `yaml:"title,omitempty"`
	Sections []Section `yaml:"sections"`
}

// Section is a titled group of bound fields.
type Section struct {
	Title  string      `yaml:"title"`
	Fields []FieldSpec `yaml:"fields"`
}

// FieldSpec binds one record field to a visible label.
type FieldSpec struct {
	Field string `yaml:"field"`
	Label string `yaml:"label"`
}

// DefaultLayout mirrors the fields of the stock RFQ screen.
func DefaultLayout() *Layout {
	return &Layout{
		Version: LayoutVersion,
		Title:   "Request for Quotation",
		Sections: []Section{
			{Title: "RFQ", Fields: []FieldSpec{
				{"rfq_number", "RFQ Number"},
				{"title", "Title"},
				{"status", "Status"},
				{"status_updater", "Status Updated By"},
				{"status_changed_date", "Status Changed"},
				{"rfq_due_date", "Due Date"},
				{"valid_until", "Valid Until"},
				{"creator", "Creator"},
				{"created_date", "Created"},
				{"updated_date", "Updated"},
			}},
			{Title: "Project", Fields: []FieldSpec{
				{"project_name", "Project"},
				{"project_cx", "Project CX"},
				{"project_country", "Country"},
				{"wbs", "WBS"},
				{"commodity_mdf", "Commodity (MDF)"},
			}},
			{Title: "Contact", Fields: []FieldSpec{
				{"purchaser", "Purchaser"},
				{"contact_first_name", "First Name"},
				{"contact_last_name", "Last Name"},
				{"contact_email", "Email"},
			}},
			{Title: "Supplier", Fields: []FieldSpec{
				{"supplier", "Supplier"},
				{"supplier_submitter_name", "Submitted By"},
				{"supplier_submitter_email", "Submitter Email"},
				{"supplier_submitted_date", "Submitted"},
				{"supplier_comment", "Comment"},
				{"supplier_gtc_comment", "GTC Comment"},
				{"deviations_comments", "Deviations"},
			}},
			{Title: "Offer", Fields: []FieldSpec{
				{"offer_reference", "Offer Reference"},
				{"offer_date", "Offer Date"},
				{"offer_submitted", "Offer Submitted"},
				{"first_accepted_date", "First Accepted"},
				{"currency", "Currency"},
				{"grand_total", "Total"},
			}},
		},
	}
}

// LoadLayout reads a layout file. A missing file yields DefaultLayout.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultLayout(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}

	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("failed to parse layout file: %w", err)
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout %s: %w", path, err)
	}
	return &layout, nil
}

// Validate checks the version and that every entry names a field.
func (l *Layout) Validate() error {
	if l.Version != LayoutVersion {
		return fmt.Errorf("unsupported layout version: %d (expected %d)", l.Version, LayoutVersion)
	}
	for i, s := range l.Sections {
		for j, f := range s.Fields {
			if f.Field == "" {
				return fmt.Errorf("section %d (%q) entry %d has no field", i, s.Title, j)
			}
		}
	}
	return nil
}

// Fields returns every field spec in display order.
func (l *Layout) Fields() []FieldSpec {
	var out []FieldSpec
	for _, s := range l.Sections {
		out = append(out, s.Fields...)
	}
	return out
}

// Save writes the layout to path atomically.
func (l *Layout) Save(path string) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to marshal layout: %w", err)
	}
	header := []byte("# rfqedit field layout: each entry binds a record field to a label.\n\n")
	return writeAtomic(path, append(header, data...))
}

// Init writes a default config file and layout file into the config
// directory. Existing files are left alone unless force is set. It returns
// the paths that were written.
func Init(force bool) ([]string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	layoutPath, err := GetLayoutPath()
	if err != nil {
		return nil, err
	}

	var written []string
	if force || !exists(configPath) {
		cfg := &Config{
			Server:  DefaultServer,
			RFQID:   DefaultRFQID,
			Timeout: DefaultTimeout,
			Layout:  layoutPath,
		}
		if err := cfg.Save(configPath); err != nil {
			return written, err
		}
		written = append(written, configPath)
	}
	if force || !exists(layoutPath) {
		if err := DefaultLayout().Save(layoutPath); err != nil {
			return written, err
		}
		written = append(written, layoutPath)
	}
	return written, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
