package datastream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbaseline/compliance/internal/config"
	"github.com/openbaseline/compliance/internal/domain/models"
	"github.com/openbaseline/compliance/pkg/logger"
)

const sampleDatastream = `<?xml version="1.0" encoding="UTF-8"?>
<Benchmark xmlns="http://checklists.nist.gov/xccdf/1.2" id="xccdf_org.example_benchmark_RHEL-8">
  <title>Guide to the Secure Configuration of Red Hat Enterprise Linux 8</title>
  <version>0.1.57</version>
  <Profile id="xccdf_org.example_profile_cis">
    <title>CIS Red Hat Enterprise Linux 8 Benchmark</title>
    <description>CIS profile</description>
  </Profile>
  <Profile id="xccdf_org.example_profile_stig">
    <title>DISA STIG for Red Hat Enterprise Linux 8</title>
  </Profile>
  <Rule id="xccdf_org.example_rule_root_rule" severity="high">
    <title>Top level rule</title>
  </Rule>
  <Group>
    <Rule id="xccdf_org.example_rule_sshd_disable_root" severity="medium">
      <title>Disable SSH root login</title>
      <description>Root login over SSH must be disabled.</description>
    </Rule>
    <Group>
      <Rule id="xccdf_org.example_rule_nested" severity="low">
        <title>Nested rule</title>
      </Rule>
    </Group>
  </Group>
</Benchmark>`

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ds.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestXCCDFParser_ExtractsBenchmarkRulesAndProfiles(t *testing.T) {
	parser := NewXCCDFParser(logger.NewNoopLogger())
	baseline := models.SupportedBaseline{
		Package:        "scap-security-guide-0.1.57-3.el8",
		Version:        "0.1.57",
		OSMajorVersion: "8",
	}

	benchmark, profiles, err := parser.Parse(context.Background(), writeSample(t, sampleDatastream), baseline)

	require.NoError(t, err)
	assert.Equal(t, "xccdf_org.example_benchmark_RHEL-8", benchmark.RefID)
	assert.Equal(t, "0.1.57", benchmark.Version)
	assert.Equal(t, "8", benchmark.OSMajorVersion)

	require.Len(t, benchmark.Rules, 3)
	assert.Equal(t, "xccdf_org.example_rule_root_rule", benchmark.Rules[0].RefID)
	assert.Equal(t, "xccdf_org.example_rule_sshd_disable_root", benchmark.Rules[1].RefID)
	assert.Equal(t, "xccdf_org.example_rule_nested", benchmark.Rules[2].RefID)
	for i, rule := range benchmark.Rules {
		assert.Equal(t, i, rule.Precedence, "precedence follows document order")
		assert.Equal(t, benchmark.ID, rule.BenchmarkID)
	}
	assert.Equal(t, "medium", benchmark.Rules[1].Severity)

	require.Len(t, profiles, 2)
	assert.Equal(t, "xccdf_org.example_profile_cis", profiles[0].RefID)
	assert.Equal(t, "CIS profile", profiles[0].Description)
	assert.Equal(t, "xccdf_org.example_profile_stig", profiles[1].RefID)
}

func TestXCCDFParser_RejectsBenchmarkWithoutID(t *testing.T) {
	parser := NewXCCDFParser(logger.NewNoopLogger())

	_, _, err := parser.Parse(context.Background(),
		writeSample(t, `<Benchmark><title>No id</title></Benchmark>`),
		models.SupportedBaseline{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no id")
}

func TestXCCDFParser_RejectsMalformedXML(t *testing.T) {
	parser := NewXCCDFParser(logger.NewNoopLogger())

	_, _, err := parser.Parse(context.Background(),
		writeSample(t, `<Benchmark id="x">`), models.SupportedBaseline{})

	require.Error(t, err)
}

func TestHTTPDownloader_FetchesPackageFile(t *testing.T) {
	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		w.Write([]byte(sampleDatastream))
	}))
	defer server.Close()

	downloader := NewHTTPDownloader(&config.DatastreamConfig{
		BaseURL:     server.URL,
		DownloadDir: t.TempDir(),
	}, logger.NewNoopLogger())

	baseline := models.SupportedBaseline{Package: "scap-security-guide-0.1.57-3.el8"}
	path, err := downloader.Download(context.Background(), baseline)

	require.NoError(t, err)
	assert.Equal(t, "/scap-security-guide-0.1.57-3.el8.xml", requestedPath)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleDatastream, string(content))
}

func TestHTTPDownloader_NonOKStatusIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	downloader := NewHTTPDownloader(&config.DatastreamConfig{
		BaseURL:     server.URL,
		DownloadDir: t.TempDir(),
	}, logger.NewNoopLogger())

	_, err := downloader.Download(context.Background(),
		models.SupportedBaseline{Package: "missing-package"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
