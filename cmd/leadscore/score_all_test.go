package main

import (
	"reflect"
	"testing"

	"github.com/honeycarbs/leadscore/internal/config"
)

func TestApplyCriteriaFlags(t *testing.T) {
	t.Cleanup(func() {
		scoreAllMinEmployees, scoreAllIndustries, scoreAllCities, scoreAllLevels, scoreAllCriteriaFile = 0, "", "", "", ""
	})

	var cfg config.Config
	cfg.ICP.MinEmployees = 200
	cfg.ICP.Cities = []string{"Aarhus"}

	scoreAllMinEmployees = 50
	scoreAllIndustries = "SaaS, Retail ,"
	scoreAllLevels = "CTO"
	scoreAllCriteriaFile = "icp.yaml"
	applyCriteriaFlags(&cfg)

	if cfg.ICP.MinEmployees != 50 || cfg.ICP.CriteriaFile != "icp.yaml" {
		t.Fatalf("icp = %+v", cfg.ICP)
	}
	if !reflect.DeepEqual(cfg.ICP.Industries, []string{"SaaS", "Retail"}) {
		t.Fatalf("industries = %v", cfg.ICP.Industries)
	}
	if !reflect.DeepEqual(cfg.ICP.Cities, []string{"Aarhus"}) {
		t.Fatalf("cities should keep config value, got %v", cfg.ICP.Cities)
	}
	if !reflect.DeepEqual(cfg.ICP.Levels, []string{"CTO"}) {
		t.Fatalf("levels = %v", cfg.ICP.Levels)
	}
}
