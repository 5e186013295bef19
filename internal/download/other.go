package download

import (
	"context"
	"fmt"

	"github.com/inodb/cbio-export/internal/alteration"
	"github.com/inodb/cbio-export/internal/portal"
)

// MolecularDataFetcher fetches molecular data of several profiles in one
// request.
type MolecularDataFetcher interface {
	FetchMolecularData(ctx context.Context, filter portal.MolecularDataFilter) ([]portal.AlterationRecord, error)
}

// SampleMolecularIdentifiers pairs every sample with each selected profile
// of its study. Samples of studies without a selected profile are skipped.
func SampleMolecularIdentifiers(profiles []portal.MolecularProfile, samples []portal.Sample) []portal.SampleMolecularIdentifier {
	byStudy := make(map[string][]portal.MolecularProfile)
	for _, p := range profiles {
		byStudy[p.StudyID] = append(byStudy[p.StudyID], p)
	}

	var ids []portal.SampleMolecularIdentifier
	for _, s := range samples {
		for _, p := range byStudy[s.StudyID] {
			ids = append(ids, portal.SampleMolecularIdentifier{
				MolecularProfileID: p.MolecularProfileID,
				SampleID:           s.SampleID,
			})
		}
	}
	return ids
}

// OtherProfileDownload fetches the molecular data of profiles for samples
// and genes and renders it as a download table. The fetch is issued once,
// and only when there are profiles, genes and matching samples; otherwise
// the table holds the header and NA rows. Fetch errors are returned as is.
func OtherProfileDownload(
	ctx context.Context,
	fetcher MolecularDataFetcher,
	profiles []portal.MolecularProfile,
	samples []portal.Sample,
	genes []portal.Gene,
) (Table, error) {
	var records []portal.AlterationRecord
	if len(profiles) > 0 && len(genes) > 0 {
		if ids := SampleMolecularIdentifiers(profiles, samples); len(ids) > 0 {
			entrez := make([]int, len(genes))
			for i, g := range genes {
				entrez[i] = g.EntrezGeneID
			}

			var err error
			records, err = fetcher.FetchMolecularData(ctx, portal.MolecularDataFilter{
				EntrezGeneIDs:              entrez,
				SampleMolecularIdentifiers: ids,
			})
			if err != nil {
				return nil, fmt.Errorf("fetching molecular data: %w", err)
			}
		}
	}

	data := portal.GroupBySample(records, func(r portal.AlterationRecord) string { return r.UniqueSampleKey })

	profileIDs := make([]string, len(profiles))
	for i, p := range profiles {
		profileIDs[i] = p.MolecularProfileID
	}

	return OtherProfileDownloadData(alteration.OtherProfileData(profileIDs, &data), samples, genes), nil
}

// DownloadOtherMolecularProfileData fetches and writes the download file of
// profiles to dir/<profileName>.txt, returning its path.
func DownloadOtherMolecularProfileData(
	ctx context.Context,
	fetcher MolecularDataFetcher,
	dir, profileName string,
	profiles []portal.MolecularProfile,
	samples []portal.Sample,
	genes []portal.Gene,
	transposed bool,
) (string, error) {
	table, err := OtherProfileDownload(ctx, fetcher, profiles, samples, genes)
	if err != nil {
		return "", err
	}
	return WriteFile(dir, profileName, table, transposed)
}
