package main

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/geoandes/landcover-cli/internal/config"
	"github.com/geoandes/landcover-cli/internal/raster"
	"github.com/geoandes/landcover-cli/internal/store"
)

// parseYears expands a years argument into an ordered list. Accepted forms:
// a single year ("2020"), an inclusive range ("2018-2022"), or a comma
// list ("2018,2020,2022").
func parseYears(arg string) ([]int, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, eris.New("years argument is empty")
	}

	if strings.Contains(arg, ",") {
		parts := strings.Split(arg, ",")
		years := make([]int, 0, len(parts))
		for _, p := range parts {
			y, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, eris.Wrapf(err, "parse year %q", p)
			}
			years = append(years, y)
		}
		return years, nil
	}

	if from, to, ok := strings.Cut(arg, "-"); ok {
		lo, err := strconv.Atoi(from)
		if err != nil {
			return nil, eris.Wrapf(err, "parse year %q", from)
		}
		hi, err := strconv.Atoi(to)
		if err != nil {
			return nil, eris.Wrapf(err, "parse year %q", to)
		}
		if hi < lo {
			return nil, eris.Errorf("year range %s is backwards", arg)
		}
		years := make([]int, 0, hi-lo+1)
		for y := lo; y <= hi; y++ {
			years = append(years, y)
		}
		return years, nil
	}

	y, err := strconv.Atoi(arg)
	if err != nil {
		return nil, eris.Wrapf(err, "parse year %q", arg)
	}
	return []int{y}, nil
}

// ruleFromConfig builds the reclassification rule from configuration.
// Viper map keys are strings, so replacement source codes are parsed here.
// Empty configuration falls back to the standard land-cover rule.
func ruleFromConfig(pc config.PipelineConfig) (raster.Rule, error) {
	if len(pc.NoDataCodes) == 0 && len(pc.ReplaceCodes) == 0 {
		return raster.LandCoverRule(), nil
	}

	rule := raster.Rule{
		NoData:  pc.NoDataCodes,
		Replace: make(map[float64]float64, len(pc.ReplaceCodes)),
	}
	for k, v := range pc.ReplaceCodes {
		code, err := strconv.ParseFloat(k, 64)
		if err != nil {
			return raster.Rule{}, eris.Wrapf(err, "parse replace code %q", k)
		}
		rule.Replace[code] = v
	}
	return rule, nil
}

// initStore opens the local run-log database.
func initStore() (store.Store, error) {
	return store.NewSQLite(cfg.Store.Path)
}
