// Package service contains the pure domain services of the compliance core:
// profile tailoring, baseline revision selection, and result scoring, plus
// the interfaces their collaborators implement in the infrastructure layer.
package service

import (
	"bytes"
	"context"
	"encoding/xml"

	"github.com/openbaseline/compliance/internal/domain/models"
	"github.com/openbaseline/compliance/pkg/logger"
)

// XCCDFNamespace is the namespace of the rendered tailoring document. The
// document schema is a compatibility contract with the external scanner.
const XCCDFNamespace = "http://checklists.nist.gov/xccdf/1.2"

// TailoringService computes rule-set deltas between a profile and its
// canonical ancestor and renders the tailoring document consumed by the
// external scanning tool.
type TailoringService struct {
	logger logger.Logger
}

// NewTailoringService creates a TailoringService.
func NewTailoringService(log logger.Logger) *TailoringService {
	return &TailoringService{logger: log.WithComponent("TailoringService")}
}

// ComputeDelta returns the rules added to and removed from the profile
// relative to its parent's effective rule set, each ordered by precedence.
func (s *TailoringService) ComputeDelta(profileRules, parentRules []models.Rule) (added, removed []models.Rule) {
	return models.DiffRules(profileRules, parentRules)
}

// IsTailored classifies the profile. Canonical profiles are never tailored;
// any other profile is tailored iff the symmetric difference between its
// rules and its parent's rules is non-empty.
func (s *TailoringService) IsTailored(profile *models.Profile, profileRules, parentRules []models.Rule) bool {
	if profile.IsCanonical() {
		return false
	}
	added, removed := models.DiffRules(profileRules, parentRules)
	return len(added)+len(removed) > 0
}

// TailoredRuleRefIDs returns the ordered delta as ref_id selections: true for
// every added rule, false for every removed one. Canonical and untailored
// profiles yield an empty, non-nil slice.
func (s *TailoringService) TailoredRuleRefIDs(profile *models.Profile, profileRules, parentRules []models.Rule) models.RuleSelections {
	selections := models.RuleSelections{}
	if profile.IsCanonical() {
		return selections
	}

	added, removed := models.DiffRules(profileRules, parentRules)
	for _, rule := range added {
		selections = append(selections, models.RuleSelection{RefID: rule.RefID, Selected: true})
	}
	for _, rule := range removed {
		selections = append(selections, models.RuleSelection{RefID: rule.RefID, Selected: false})
	}
	return selections
}

// tailoringFile is the serialized form of a profile's delta against its
// canonical ancestor.
type tailoringFile struct {
	XMLName   xml.Name           `xml:"Tailoring"`
	Namespace string             `xml:"xmlns,attr"`
	ID        string             `xml:"id,attr"`
	Benchmark tailoringBenchmark `xml:"benchmark"`
	Version   tailoringVersion   `xml:"version"`
	Profile   tailoringProfile   `xml:"Profile"`
}

type tailoringBenchmark struct {
	Href string `xml:"href,attr"`
}

type tailoringVersion struct {
	Value string `xml:",chardata"`
}

type tailoringProfile struct {
	ID             string            `xml:"id,attr"`
	Extends        string            `xml:"extends,attr"`
	OSMinorVersion string            `xml:"os-minor-version,attr,omitempty"`
	Selections     []tailoringSelect `xml:"select"`
}

type tailoringSelect struct {
	IDRef    string `xml:"idref,attr"`
	Selected bool   `xml:"selected,attr"`
}

// RenderTailoringFile serializes the profile's delta against its canonical
// ancestor. It returns nil content for canonical and untailored profiles,
// which are identical to their ancestor and need no override document. The
// output contains no timestamps and is byte-identical for the same rule-set
// snapshot.
func (s *TailoringService) RenderTailoringFile(ctx context.Context, profile, parent *models.Profile, benchmark *models.Benchmark, profileRules, parentRules []models.Rule) ([]byte, error) {
	if profile.IsCanonical() {
		return nil, nil
	}
	selections := s.TailoredRuleRefIDs(profile, profileRules, parentRules)
	if len(selections) == 0 {
		return nil, nil
	}

	doc := tailoringFile{
		Namespace: XCCDFNamespace,
		ID:        "xccdf_compliance.openbaseline_tailoring_" + profile.ID.String(),
		Benchmark: tailoringBenchmark{Href: benchmark.RefID},
		Version:   tailoringVersion{Value: "1"},
		Profile: tailoringProfile{
			ID:             profile.RefID,
			Extends:        parent.RefID,
			OSMinorVersion: profile.OSMinorVersion,
		},
	}
	for _, sel := range selections {
		doc.Profile.Selections = append(doc.Profile.Selections, tailoringSelect{
			IDRef:    sel.RefID,
			Selected: sel.Selected,
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		s.logger.Error(ctx, "Failed to render tailoring file", err,
			logger.Fields{"profile_id": profile.ID})
		return nil, err
	}
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

// ParseTailoringFile reads the selections back out of a rendered document in
// document order. Together with the canonical ancestor's rule set this
// reproduces the added/removed state the document was rendered from.
func ParseTailoringFile(data []byte) (models.RuleSelections, error) {
	var doc tailoringFile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	selections := make(models.RuleSelections, 0, len(doc.Profile.Selections))
	for _, sel := range doc.Profile.Selections {
		selections = append(selections, models.RuleSelection{RefID: sel.IDRef, Selected: sel.Selected})
	}
	return selections, nil
}
