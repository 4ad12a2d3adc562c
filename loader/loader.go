package loader

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"huim/core"
)

// ReadDatabase parses an uncertain transaction database file. Each line is a
// transaction of whitespace-separated item:quantity:probability tokens.
// Quantity must be a positive integer and probability in (0,1]. Blank lines
// and lines starting with '#' are skipped. Malformed tokens are skipped with
// a warning; a line with no usable token is dropped. Transaction ids are
// assigned sequentially from 1 in file order.
func ReadDatabase(filePath string) ([]*core.Transaction, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database file %s", filePath)
	}
	defer file.Close()

	transactions := make([]*core.Transaction, 0)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	lineNum := 0
	skippedTokens := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		items := make(map[int]int)
		probabilities := make(map[int]float64)
		for _, token := range strings.Fields(line) {
			item, quantity, probability, err := parseEntry(token)
			if err != nil {
				log.WithError(err).Warnf("Skipping entry %q on line %d of %s", token, lineNum, filePath)
				skippedTokens++
				continue
			}
			items[item] = quantity
			probabilities[item] = probability
		}
		if len(items) == 0 {
			log.Warnf("Skipping line %d of %s: no usable entries", lineNum, filePath)
			continue
		}
		transactions = append(transactions, core.NewTransaction(len(transactions)+1, items, probabilities))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read database file %s", filePath)
	}
	if len(transactions) == 0 {
		return nil, errors.Errorf("database file %s has no usable transactions", filePath)
	}

	log.WithFields(log.Fields{
		"file":          filePath,
		"transactions":  len(transactions),
		"skippedTokens": skippedTokens,
	}).Info("Loaded transaction database")
	return transactions, nil
}

// parseEntry parses one item:quantity:probability token.
func parseEntry(token string) (int, int, float64, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return 0, 0, 0, errors.Errorf("expected item:quantity:probability, got %d fields", len(parts))
	}
	item, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "bad item id")
	}
	quantity, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "bad quantity")
	}
	if quantity <= 0 {
		return 0, 0, 0, errors.Errorf("quantity %d is not positive", quantity)
	}
	probability, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "bad probability")
	}
	if probability <= 0 || probability > 1 {
		return 0, 0, 0, errors.Errorf("probability %v outside (0,1]", probability)
	}
	return item, quantity, probability, nil
}

// ReadProfitTable parses a profit table file of whitespace-separated
// "item profit" pairs, one per line. Profit may be any real number. Blank
// and '#' lines are skipped; malformed lines are skipped with a warning.
func ReadProfitTable(filePath string) (map[int]float64, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open profit file %s", filePath)
	}
	defer file.Close()

	profits := make(map[int]float64)
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			log.Warnf("Skipping line %d of %s: expected 'item profit', got %d fields", lineNum, filePath, len(fields))
			continue
		}
		item, err := strconv.Atoi(fields[0])
		if err != nil {
			log.WithError(err).Warnf("Skipping line %d of %s: bad item id", lineNum, filePath)
			continue
		}
		profit, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			log.WithError(err).Warnf("Skipping line %d of %s: bad profit", lineNum, filePath)
			continue
		}
		profits[item] = profit
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read profit file %s", filePath)
	}
	if len(profits) == 0 {
		return nil, errors.Errorf("profit file %s has no usable entries", filePath)
	}

	log.WithFields(log.Fields{"file": filePath, "items": len(profits)}).Info("Loaded profit table")
	return profits, nil
}
