package mappers

import (
	api "github.com/kubev2v/inventory-advisor/api/v1alpha1"
	"github.com/kubev2v/inventory-advisor/internal/service"
	"github.com/kubev2v/inventory-advisor/internal/store/model"
	"github.com/kubev2v/inventory-advisor/pkg/version"
)

func SourceToApi(s model.Source) api.Source {
	source := api.Source{
		Id:         s.ID,
		Name:       s.Name,
		FileName:   s.FileName,
		Checksum:   s.Checksum,
		Rows:       s.RowCount,
		Tables:     make([]api.SourceTable, 0, len(s.Tables)),
		IngestedAt: s.IngestedAt,
	}

	for _, t := range s.Tables {
		source.Tables = append(source.Tables, api.SourceTable{Name: t.Table, Rows: t.RowCount})
	}

	return source
}

func SourceListToApi(sources model.SourceList) api.SourceList {
	list := make(api.SourceList, 0, len(sources))
	for _, s := range sources {
		list = append(list, SourceToApi(s))
	}
	return list
}

func IngestResultToApi(r service.IngestResult) api.IngestResult {
	return api.IngestResult{
		Source:    SourceToApi(r.Source),
		Unchanged: r.Unchanged,
		Epoch:     r.Epoch,
	}
}

func InfoToApi(v version.Info) api.Info {
	return api.Info{
		GitCommit:   v.GitCommit,
		VersionName: v.GitVersion,
	}
}
