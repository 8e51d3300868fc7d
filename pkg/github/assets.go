package github

import (
	"fmt"

	"github.com/arc-language/bpkg/pkg/core"
	"github.com/arc-language/bpkg/pkg/platform"
)

// SelectAsset lists the release assets and asks which one to install
// when there is more than one. Assets built for plat are marked; plat may
// be nil.
func SelectAsset(p core.Prompter, rel *Release, plat *platform.Platform) (*Asset, error) {
	if len(rel.Assets) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoAssets, rel.TagName)
	}

	names := make([]string, len(rel.Assets))
	for i, a := range rel.Assets {
		names[i] = a.Name
	}
	suggested := -1
	if plat != nil {
		suggested = plat.Suggest(names)
	}

	p.Notifyf("Release %s ships %d assets...", rel.TagName, len(rel.Assets))
	for i, a := range rel.Assets {
		mark := ""
		if i == suggested {
			mark = "\t<- " + plat.String()
		}
		p.Notifyf("-> %d\t%.2fmb\t%s%s", i, float64(a.Size)/1_000_000, a.Name, mark)
	}

	pick := 0
	if len(rel.Assets) > 1 {
		var err error
		if pick, err = p.AskNumber(0, len(rel.Assets), "Choose one:"); err != nil {
			return nil, fmt.Errorf("choosing asset: %w", err)
		}
	}

	asset := &rel.Assets[pick]
	if asset.BrowserDownloadURL == "" {
		return nil, fmt.Errorf("github: asset %s has no download url", asset.Name)
	}
	return asset, nil
}
