package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	api "github.com/kubev2v/inventory-advisor/api/v1alpha1"
	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndValidateKindName(t *testing.T) {
	kind, name, err := parseAndValidateKindName("sources")
	require.NoError(t, err)
	assert.Equal(t, SourceKind, kind)
	assert.Empty(t, name)

	kind, name, err = parseAndValidateKindName("source/prod")
	require.NoError(t, err)
	assert.Equal(t, SourceKind, kind)
	assert.Equal(t, "prod", name)

	_, _, err = parseAndValidateKindName("assessments")
	assert.Error(t, err)
}

func TestValidateOutput(t *testing.T) {
	assert.NoError(t, validateOutput(""))
	assert.NoError(t, validateOutput("yaml"))
	assert.Error(t, validateOutput("xml"))
}

func TestFindingFlags(t *testing.T) {
	f := FindingFlags{Source: "prod", Severity: "high", Types: []string{"eol_os", " zombie_disk"}, Limit: 5}
	require.NoError(t, f.Validate())

	q := f.Query()
	assert.Equal(t, "prod", q.Get("source"))
	assert.Equal(t, "HIGH", q.Get("severity"))
	assert.Equal(t, []string{"eol_os", " zombie_disk"}, q["type"])
	assert.Equal(t, "5", q.Get("limit"))

	flt := f.Filter()
	assert.Equal(t, findings.SeverityHigh, flt.Severity)
	assert.Equal(t, []findings.Type{findings.TypeEOLOS, "ZOMBIE_DISK"}, flt.Types)

	assert.Error(t, (&FindingFlags{Severity: "urgent"}).Validate())
	assert.Error(t, (&FindingFlags{Limit: -1}).Validate())
	assert.Empty(t, (&FindingFlags{}).Query())
}

func TestUploadValidate(t *testing.T) {
	o := DefaultUploadOptions()
	assert.NoError(t, o.Validate([]string{"prod.xlsx", "dr.XLSM"}))
	assert.ErrorContains(t, o.Validate([]string{"prod.xlsx", "notes.txt"}), "notes.txt")
}

func TestReportValidate(t *testing.T) {
	o := DefaultReportOptions()
	o.Format = "HTML"
	require.NoError(t, o.Validate(nil))
	assert.Equal(t, "html", o.Format)

	o.Format = "docx"
	assert.Error(t, o.Validate(nil))
}

func TestClient(t *testing.T) {
	var uploaded string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/sources":
			_ = json.NewEncoder(w).Encode(api.SourceList{{Name: "prod"}})
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/sources/missing":
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(api.Error{Message: "source missing not found"})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/sources/prod":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/sources":
			_, header, err := r.FormFile("file")
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			uploaded = header.Filename
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(api.IngestResult{Source: api.Source{Name: "prod"}, Epoch: 1})
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/findings":
			assert.Equal(t, "CRITICAL", r.URL.Query().Get("severity"))
			_ = json.NewEncoder(w).Encode(api.FindingList{Epoch: 3})
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", server.Client())
	ctx := context.TODO()

	list, err := c.ListSources(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = c.GetSource(ctx, "missing")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, "source missing not found", statusErr.Message)

	require.NoError(t, c.DeleteSource(ctx, "prod"))

	path := filepath.Join(t.TempDir(), "prod.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o600))
	result, err := c.UploadWorkbook(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "prod.xlsx", uploaded)
	assert.Equal(t, uint64(1), result.Epoch)

	found, err := c.ListFindings(ctx, (&FindingFlags{Severity: "critical"}).Query())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), found.Epoch)
}
