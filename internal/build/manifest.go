package build

import (
	"context"
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/revision"
)

// ManifestFile is written at the root of the output directory.
const ManifestFile = "manifest.json"

// Manifest maps logical file names to fingerprinted output files.
type Manifest struct {
	BuildID     string            `json:"build_id"`
	Mode        string            `json:"mode"`
	Revision    string            `json:"revision,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
	Pages       []string          `json:"pages"`
	Files       map[string]string `json:"files"`
}

func stageWriteManifest(_ context.Context, bs *buildState) error {
	m := &Manifest{
		BuildID:     bs.report.BuildID,
		Mode:        bs.report.Mode,
		Revision:    revision.Head(bs.cfg.Root),
		GeneratedAt: bs.report.Start.UTC(),
		Pages:       append([]string{}, bs.pageNames...),
		Files:       make(map[string]string, len(bs.files)),
	}
	for _, f := range bs.files {
		m.Files[f.Logical] = f.Name
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "encode manifest").Build()
	}
	if err := writeFile(bs.out, ManifestFile, append(data, '\n')); err != nil {
		return err
	}
	bs.manifest = m
	return nil
}
