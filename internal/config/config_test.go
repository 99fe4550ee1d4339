package config

import (
	"testing"

	"pathce/internal/binning"
	"pathce/internal/common"
)

func TestNewBuildConfigDefaults(t *testing.T) {
	c := NewBuildConfig()
	if c.MaxPathLength != 3 || c.MaxStarLength != 3 || c.MaxStarDegree != 4 {
		t.Fatalf("unexpected length defaults: %+v", c)
	}
	if c.Buckets != 200 || !c.EnableGreedyBucket {
		t.Fatalf("unexpected bucket defaults: %+v", c)
	}
	if c.PkThreshold != 0.99 || c.SmallVarianceThreshold != 2.0 {
		t.Fatalf("unexpected threshold defaults: %+v", c)
	}
}

func TestNewBuildConfigOptions(t *testing.T) {
	c := NewBuildConfig(
		WithBuildMaxPathLength(5),
		WithBuckets(50),
		WithEnableGreedyBucket(false),
		WithSaveBucketMap(true),
		WithThreads(8),
		WithPkThreshold(0.9),
		WithSmallVarianceThreshold(1.5),
	)
	want := BuildConfig{
		MaxPathLength:          5,
		MaxStarLength:          3,
		MaxStarDegree:          4,
		Buckets:                50,
		EnableGreedyBucket:     false,
		SaveBucketMap:          true,
		Threads:                8,
		PkThreshold:            0.9,
		SmallVarianceThreshold: 1.5,
	}
	if *c != want {
		t.Fatalf("config = %+v, want %+v", *c, want)
	}
}

func TestBuildConfigApplyThresholds(t *testing.T) {
	origPk, origVar := binning.PkThreshold, binning.SmallVarianceThreshold
	defer func() { binning.PkThreshold, binning.SmallVarianceThreshold = origPk, origVar }()

	c := NewBuildConfig(WithPkThreshold(0.5), WithSmallVarianceThreshold(3.0))
	c.ApplyThresholds()
	if binning.PkThreshold != 0.5 {
		t.Fatalf("binning.PkThreshold = %v, want 0.5", binning.PkThreshold)
	}
	if binning.SmallVarianceThreshold != 3.0 {
		t.Fatalf("binning.SmallVarianceThreshold = %v, want 3.0", binning.SmallVarianceThreshold)
	}
}

func TestNewEstimateConfigDefaults(t *testing.T) {
	c := NewEstimateConfig()
	if c.MaxPathLength != 3 || c.MaxStarLength != 3 || c.MaxStarDegree != 4 {
		t.Fatalf("unexpected length defaults: %+v", c)
	}
	if c.Limit != 0 || c.DisableStar || c.DisablePrune || c.DisableCyclic {
		t.Fatalf("unexpected flag defaults: %+v", c)
	}
	if c.Order != nil {
		t.Fatalf("Order = %v, want nil", c.Order)
	}
}

func TestNewEstimateConfigOptions(t *testing.T) {
	order := []common.TagId{2, 0, 1}
	c := NewEstimateConfig(
		WithEstimateMaxStarDegree(6),
		WithLimit(10),
		WithDisableStar(true),
		WithDisablePrune(true),
		WithDisableCyclic(true),
		WithOrder(order),
	)
	if c.MaxStarDegree != 6 || c.Limit != 10 {
		t.Fatalf("unexpected config: %+v", c)
	}
	if !c.DisableStar || !c.DisablePrune || !c.DisableCyclic {
		t.Fatalf("unexpected flags: %+v", c)
	}
	if len(c.Order) != 3 || c.Order[0] != 2 {
		t.Fatalf("Order = %v, want %v", c.Order, order)
	}
}
