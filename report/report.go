package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"huim/core"
	"huim/engine"
	"huim/filestore"
)

// FormatItemset renders one ranked result line.
func FormatItemset(rank int, it core.Itemset) string {
	return fmt.Sprintf("%d. %v: EU=%.4f, EP=%.4f", rank, it.Items, it.ExpectedUtility, it.ExistentialProbability)
}

// WriteResults writes the ranked itemsets, one per line, to the run's
// results file through the given FileManager.
func WriteResults(fm filestore.FileManager, runID string, results []core.Itemset) error {
	var buf bytes.Buffer
	for i, it := range results {
		buf.WriteString(FormatItemset(i+1, it))
		buf.WriteString("\n")
	}

	path, fileName := fm.GetResultsFilePathAndName(runID)
	if err := fm.Create(path, fileName, &buf); err != nil {
		return errors.Wrap(err, "failed to write results file")
	}
	log.WithFields(log.Fields{
		"path":     path + fileName,
		"itemsets": len(results),
	}).Info("Wrote mining results")
	return nil
}

// WriteStats exports the run statistics as JSON next to the results file.
func WriteStats(fm filestore.FileManager, runID string, stats engine.StatsSnapshot) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal stats")
	}

	path, fileName := fm.GetStatsFilePathAndName(runID)
	if err := fm.Create(path, fileName, bytes.NewReader(data)); err != nil {
		return errors.Wrap(err, "failed to write stats file")
	}
	log.WithField("path", path+fileName).Info("Wrote mining stats")
	return nil
}
