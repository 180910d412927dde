package main

import (
	"encoding/json"
	"flag"
	"os"
	"runtime"

	log "github.com/sirupsen/logrus"

	"github.com/tarstars/distributed_tree_learning/dtl"
)

// trainConfig is the JSON side config carrying options that are awkward
// as flags.
type trainConfig struct {
	CategoricalFeatures map[int]int `json:"categorical_features"`
}

func decodeConfig(srcConfig string, out interface{}) {
	file, err := os.Open(srcConfig)
	dtl.HandleError(err)
	defer func() { dtl.HandleError(file.Close()) }()

	decoder := json.NewDecoder(file)
	dtl.HandleError(decoder.Decode(out))
}

func main() {
	featuresPath := flag.String("features", "", "path to the npy feature matrix")
	labelsPath := flag.String("labels", "", "path to the npy label column")
	configPath := flag.String("config", "", "optional JSON config with categorical feature arities")
	algoName := flag.String("algo", "regression", "classification or regression")
	impurityName := flag.String("impurity", "", "gini, entropy or variance; default per algo")
	maxDepth := flag.Int("max-depth", 5, "maximum tree depth, root at depth 0")
	maxBins := flag.Int("max-bins", 32, "maximum bins per feature")
	numClasses := flag.Int("num-classes", 2, "number of classes for classification")
	memoryMb := flag.Uint64("memory-mb", 256, "aggregation memory budget in MiB")
	partitions := flag.Int("partitions", runtime.NumCPU(), "number of dataset partitions")
	seed := flag.Int64("seed", 1, "sampling seed for split candidate selection")
	renderPath := flag.String("render", "", "optional svg output path for the trained tree")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if *featuresPath == "" || *labelsPath == "" {
		log.Fatal("both -features and -labels are required")
	}

	params := dtl.TreeParams{
		MaxDepth:       *maxDepth,
		MaxBins:        *maxBins,
		NumClasses:     *numClasses,
		MaxMemoryBytes: *memoryMb << 20,
		Seed:           *seed,
	}
	switch *algoName {
	case "classification":
		params.Algo = dtl.Classification
		params.Impurity = dtl.Gini
	case "regression":
		params.Algo = dtl.Regression
		params.Impurity = dtl.Variance
	default:
		log.Fatalf("unknown algo %q", *algoName)
	}
	switch *impurityName {
	case "":
	case "gini":
		params.Impurity = dtl.Gini
	case "entropy":
		params.Impurity = dtl.Entropy
	case "variance":
		params.Impurity = dtl.Variance
	default:
		log.Fatalf("unknown impurity %q", *impurityName)
	}
	if *configPath != "" {
		var cfg trainConfig
		decodeConfig(*configPath, &cfg)
		params.CategoricalFeatures = cfg.CategoricalFeatures
	}

	log.WithField("path", *featuresPath).Info("load features")
	features, err := dtl.ReadNpy(*featuresPath)
	dtl.HandleError(err)
	log.WithField("path", *labelsPath).Info("load labels")
	labels, err := dtl.ReadNpy(*labelsPath)
	dtl.HandleError(err)

	data, err := dtl.DatasetFromMatrix(features, labels, *partitions)
	dtl.HandleError(err)

	tree, err := dtl.TrainTree(data, params)
	dtl.HandleError(err)

	log.WithFields(log.Fields{
		"nodes": tree.NodeCount(),
		"depth": tree.Depth(),
	}).Info("tree trained")

	if params.Algo == dtl.Classification {
		log.WithField("accuracy", dtl.Accuracy(tree, data)).Info("training set fit")
	} else {
		log.WithField("rmse", dtl.Rmse(tree, data)).Info("training set fit")
	}

	if *renderPath != "" {
		dtl.HandleError(tree.RenderFile(*renderPath, "svg"))
	}
}
