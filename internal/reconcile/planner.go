package reconcile

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

type Planner struct {
	detector ChangeDetector
}

func NewPlanner(detector ChangeDetector) *Planner {
	if detector == nil {
		detector = MetadataDetector{}
	}
	return &Planner{detector: detector}
}

// Plan computes the uploads and deletions that make remote mirror local.
// It does no I/O; identical inputs always yield an identical plan.
func (p *Planner) Plan(local LocalSnapshot, remote RemoteSnapshot) *Plan {
	local = local.Dedup()

	plan := &Plan{
		Uploads:   make([]*LocalFile, 0),
		Deletions: make([]string, 0),
	}

	localKeys := mapset.NewThreadUnsafeSetWithSize[string](len(local))
	for _, file := range local {
		localKeys.Add(file.RelPath)

		remoteFile, exists := remote[file.RelPath]
		switch {
		case !exists:
			plan.Uploads = append(plan.Uploads, file)
		case p.detector.HasChanged(file, remoteFile):
			plan.Uploads = append(plan.Uploads, file)
		default:
			plan.Skipped++
		}
	}

	remoteKeys := make([]string, 0, len(remote))
	for key := range remote {
		remoteKeys = append(remoteKeys, key)
	}
	slices.Sort(remoteKeys)

	for _, key := range remoteKeys {
		if !localKeys.Contains(key) {
			plan.Deletions = append(plan.Deletions, key)
		}
	}

	return plan
}
