package cmd

import (
	"io"

	"github.com/pterm/pterm"

	"github.com/oshokin/asset-sync/internal/service/syncer"
)

// renderStatus prints one table row per installed tree.
func renderStatus(out io.Writer, rows []syncer.TreeStatus) error {
	data := pterm.TableData{{"Asset", "Tag", "Platform", "State", "Path"}}

	for _, row := range rows {
		data = append(data, []string{row.Asset, row.Tag, row.Platform, row.State, row.InstallDir})
	}

	return pterm.DefaultTable.
		WithHasHeader().
		WithData(data).
		WithWriter(out).
		Render()
}
