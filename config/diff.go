package config

import (
	"encoding/json"

	"github.com/sergi/go-diff/diffmatchpatch"

	"go.viam.com/diagsensors/resource"
)

// A Diff is the difference between two configs, left and right
// where left is usually old and right is new. So the diff is the
// changes from left to right.
type Diff struct {
	Left, Right    *Config
	Added          []resource.Config
	Modified       []resource.Config
	Removed        []resource.Config
	ResourcesEqual bool
	PrettyDiff     string
}

// DiffConfigs returns the difference between the two given configs
// from left to right.
func DiffConfigs(left, right Config) (*Diff, error) {
	prettyDiff, err := prettyDiff(left, right)
	if err != nil {
		return nil, err
	}

	diff := Diff{
		Left:       &left,
		Right:      &right,
		PrettyDiff: prettyDiff,
	}

	// If left contains something right does not => removed
	// If right contains something left does not => added
	// If left contains something right does and they are not equal => modified
	leftM := make(map[string]resource.Config, len(left.Components))
	for _, l := range left.Components {
		leftM[l.Name] = l
	}
	rightM := make(map[string]struct{}, len(right.Components))
	for _, r := range right.Components {
		rightM[r.Name] = struct{}{}
		l, ok := leftM[r.Name]
		switch {
		case !ok:
			diff.Added = append(diff.Added, r)
		case !l.Equals(r):
			diff.Modified = append(diff.Modified, r)
		}
	}
	for _, l := range left.Components {
		if _, ok := rightM[l.Name]; !ok {
			diff.Removed = append(diff.Removed, l)
		}
	}
	diff.ResourcesEqual = len(diff.Added) == 0 && len(diff.Modified) == 0 && len(diff.Removed) == 0
	return &diff, nil
}

func prettyDiff(left, right Config) (string, error) {
	leftMd, err := json.MarshalIndent(left, "", " ")
	if err != nil {
		return "", err
	}
	rightMd, err := json.MarshalIndent(right, "", " ")
	if err != nil {
		return "", err
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(leftMd), string(rightMd), true)
	filteredDiffs := make([]diffmatchpatch.Diff, 0, len(diffs))
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			continue
		}
		filteredDiffs = append(filteredDiffs, d)
	}
	return dmp.DiffPrettyText(filteredDiffs), nil
}

// String returns a pretty version of the diff.
func (diff *Diff) String() string {
	return diff.PrettyDiff
}
