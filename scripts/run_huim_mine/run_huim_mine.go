package main

import (
	"flag"
	"strconv"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"huim/engine"
	"huim/filestore"
	"huim/loader"
	"huim/report"
	serviceDisk "huim/services/disk"
	serviceGCS "huim/services/gcstorage"
)

// envDefaults carries environment-variable overrides for the flag defaults,
// prefixed HUIM_ (e.g. HUIM_OUTPUT_DIR, HUIM_NUM_ROUTINES).
type envDefaults struct {
	OutputDir   string `envconfig:"output_dir" default:"./results"`
	BucketName  string `envconfig:"bucket_name" default:""`
	NumRoutines int    `envconfig:"num_routines" default:"1"`
}

func main() {
	var env envDefaults
	if err := envconfig.Process("huim", &env); err != nil {
		log.WithError(err).Fatal("Failed to read environment defaults")
	}

	dbFileFlag := flag.String("db_file", "", "Path to the uncertain transaction database file")
	profitFileFlag := flag.String("profit_file", "", "Path to the item profit table file")
	kFlag := flag.Int("k", 0, "Number of top itemsets to mine")
	minProbabilityFlag := flag.Float64("min_probability", -1, "Minimum existential probability in [0,1]")
	outputDirFlag := flag.String("output_dir", env.OutputDir, "Local directory for result files")
	bucketNameFlag := flag.String("bucket_name", env.BucketName, "Optional GCS bucket for result files; local disk when empty")
	numRoutinesFlag := flag.Int("num_routines", env.NumRoutines, "No of routines")
	parallelGranularityFlag := flag.Int("parallel_granularity", engine.DefaultParallelGranularity,
		"Minimum extension-list length before a search level is split across routines")
	maxMemoryMBFlag := flag.Int("max_memory_mb", 0, "Optional memory ceiling in MB; 0 disables")
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	statsFlag := flag.Bool("stats", false, "Export mining statistics as JSON")
	flag.Parse()

	if *debugFlag {
		log.SetLevel(log.DebugLevel)
	}

	dbFile, profitFile := *dbFileFlag, *profitFileFlag
	k, minProbability := *kFlag, *minProbabilityFlag

	// Positional form: <db_file> <profit_file> <k> <min_probability>.
	if dbFile == "" && flag.NArg() == 4 {
		var err error
		dbFile = flag.Arg(0)
		profitFile = flag.Arg(1)
		if k, err = strconv.Atoi(flag.Arg(2)); err != nil {
			log.WithError(err).Fatal("Invalid k argument")
		}
		if minProbability, err = strconv.ParseFloat(flag.Arg(3), 64); err != nil {
			log.WithError(err).Fatal("Invalid min_probability argument")
		}
	}
	if dbFile == "" || profitFile == "" {
		log.Fatal("Usage: run_huim_mine --db_file F --profit_file P --k K --min_probability M " +
			"(or positional <db_file> <profit_file> <k> <min_probability>)")
	}

	log.WithFields(log.Fields{
		"DbFile":         dbFile,
		"ProfitFile":     profitFile,
		"K":              k,
		"MinProbability": minProbability,
		"NumRoutines":    *numRoutinesFlag,
	}).Infoln("Initialising")

	if *numRoutinesFlag < 1 {
		log.Fatal("num_routines is less than one.")
	}

	var fileManager filestore.FileManager
	if *bucketNameFlag == "" {
		fileManager = serviceDisk.New(*outputDirFlag)
	} else {
		var err error
		fileManager, err = serviceGCS.New(*bucketNameFlag)
		if err != nil {
			log.WithError(err).Fatal("Failed to init New GCS Client")
		}
	}

	profits, err := loader.ReadProfitTable(profitFile)
	if err != nil {
		log.WithError(err).Fatal("Failed to load profit table")
	}
	database, err := loader.ReadDatabase(dbFile)
	if err != nil {
		log.WithError(err).Fatal("Failed to load transaction database")
	}

	cfg, err := engine.NewConfiguration(k, minProbability, profits)
	if err != nil {
		log.WithError(err).Fatal("Invalid mining configuration")
	}
	cfg.NumRoutines = *numRoutinesFlag
	cfg.ParallelGranularity = *parallelGranularityFlag
	cfg.MaxMemoryBytes = uint64(*maxMemoryMBFlag) * 1024 * 1024
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid mining configuration")
	}

	miner, err := engine.NewMiningEngine(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to init mining engine")
	}
	results, err := miner.Mine(database)
	if err != nil && !errors.Is(err, engine.ErrMemoryLimit) {
		log.WithError(err).Fatal("Mining failed")
	}
	if errors.Is(err, engine.ErrMemoryLimit) {
		log.Warn("Memory ceiling exceeded; exporting partial results")
	}

	stats := miner.Stats()
	for i, it := range results {
		log.Info(report.FormatItemset(i+1, it))
	}
	if err := report.WriteResults(fileManager, stats.RunID, results); err != nil {
		log.WithError(err).Fatal("Failed to export results")
	}
	if *statsFlag {
		if err := report.WriteStats(fileManager, stats.RunID, stats); err != nil {
			log.WithError(err).Fatal("Failed to export stats")
		}
	}
}
