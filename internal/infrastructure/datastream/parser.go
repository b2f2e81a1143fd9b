package datastream

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/openbaseline/compliance/internal/domain/models"
	domain "github.com/openbaseline/compliance/internal/domain/service"
	"github.com/openbaseline/compliance/pkg/logger"
)

type xmlBenchmark struct {
	XMLName  xml.Name     `xml:"Benchmark"`
	ID       string       `xml:"id,attr"`
	Title    string       `xml:"title"`
	Version  string       `xml:"version"`
	Profiles []xmlProfile `xml:"Profile"`
	Rules    []xmlRule    `xml:"Rule"`
	Groups   []xmlGroup   `xml:"Group"`
}

type xmlProfile struct {
	ID          string `xml:"id,attr"`
	Title       string `xml:"title"`
	Description string `xml:"description"`
}

type xmlRule struct {
	ID          string `xml:"id,attr"`
	Severity    string `xml:"severity,attr"`
	Title       string `xml:"title"`
	Description string `xml:"description"`
}

// xmlGroup nests further groups and rules; the tree is flattened in document
// order, which defines rule precedence.
type xmlGroup struct {
	Rules  []xmlRule  `xml:"Rule"`
	Groups []xmlGroup `xml:"Group"`
}

// XCCDFParser extracts the benchmark, its rules, and its declared profiles
// from a datastream file.
type XCCDFParser struct {
	logger logger.Logger
}

// NewXCCDFParser creates an XCCDFParser.
func NewXCCDFParser(log logger.Logger) domain.DatastreamParser {
	return &XCCDFParser{logger: log.WithComponent("XCCDFParser")}
}

// Parse reads the datastream file at path. Rule precedence is the position in
// document order, so re-parsing identical content yields identical ordering.
func (p *XCCDFParser) Parse(ctx context.Context, path string, baseline models.SupportedBaseline) (*models.Benchmark, []domain.ParsedProfile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read datastream %s: %w", path, err)
	}

	var doc xmlBenchmark
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse datastream %s: %w", path, err)
	}
	if doc.ID == "" {
		return nil, nil, fmt.Errorf("parse datastream %s: benchmark has no id", path)
	}

	version := doc.Version
	if version == "" {
		version = baseline.Version
	}

	benchmark := &models.Benchmark{
		ID:             uuid.New(),
		RefID:          doc.ID,
		Title:          doc.Title,
		Version:        version,
		OSMajorVersion: baseline.OSMajorVersion,
	}

	precedence := 0
	appendRule := func(r xmlRule) {
		benchmark.Rules = append(benchmark.Rules, models.Rule{
			ID:          uuid.New(),
			RefID:       r.ID,
			Title:       r.Title,
			Description: r.Description,
			Severity:    r.Severity,
			Precedence:  precedence,
			BenchmarkID: benchmark.ID,
		})
		precedence++
	}
	for _, r := range doc.Rules {
		appendRule(r)
	}
	var walk func(groups []xmlGroup)
	walk = func(groups []xmlGroup) {
		for _, g := range groups {
			for _, r := range g.Rules {
				appendRule(r)
			}
			walk(g.Groups)
		}
	}
	walk(doc.Groups)

	profiles := make([]domain.ParsedProfile, 0, len(doc.Profiles))
	for _, prof := range doc.Profiles {
		profiles = append(profiles, domain.ParsedProfile{
			RefID:       prof.ID,
			Title:       prof.Title,
			Description: prof.Description,
		})
	}

	p.logger.Info(ctx, "Datastream parsed",
		logger.Fields{
			"benchmark_ref_id": benchmark.RefID,
			"version":          benchmark.Version,
			"rule_count":       len(benchmark.Rules),
			"profile_count":    len(profiles),
		})
	return benchmark, profiles, nil
}
