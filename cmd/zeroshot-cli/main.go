package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"zeroshot/clip"
	"zeroshot/kaggle"
	"zeroshot/zeroshot"
)

type cliOptions struct {
	configPath   string
	dataset      string
	datasetsPath string
	split        string
	mode         string
	promptsPath  string
	outputPath   string
	outputDir    string
	stdout       bool
	initConfig   bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		log.Fatalf("zeroshot-cli: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("zeroshot-cli: %v", err)
	}
}

func parseFlags() (cliOptions, error) {
	var opts cliOptions
	flag.StringVar(&opts.configPath, "config", "", "Path to config.json (default: ./config.json)")
	flag.StringVar(&opts.dataset, "dataset", "", "Dataset name (builtin: yoga, intel, fruits, or from --datasets)")
	flag.StringVar(&opts.datasetsPath, "datasets", "", "YAML file with additional dataset definitions")
	flag.StringVar(&opts.split, "split", "", "Dataset split (train/test/... for split datasets)")
	flag.StringVar(&opts.mode, "mode", "classify", "Run mode: classify or embed")
	flag.StringVar(&opts.promptsPath, "prompts", "", "File with one prompt per class (default: dataset prompt template)")
	flag.StringVar(&opts.outputPath, "output", "", "Output file (default uses --output-dir)")
	flag.StringVar(&opts.outputDir, "output-dir", "results", "Directory for results when --output is omitted")
	flag.BoolVar(&opts.stdout, "stdout", false, "Print a result summary to STDOUT")
	flag.BoolVar(&opts.initConfig, "init-config", false, "Write a default config file and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --dataset NAME [options]\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	opts.dataset = strings.TrimSpace(opts.dataset)
	opts.mode = strings.TrimSpace(opts.mode)
	if opts.initConfig {
		return opts, nil
	}
	if opts.dataset == "" {
		flag.Usage()
		return opts, errors.New("missing required --dataset")
	}
	if opts.mode != "classify" && opts.mode != "embed" {
		return opts, fmt.Errorf("unknown mode %q", opts.mode)
	}
	return opts, nil
}

func run(opts cliOptions) error {
	cfg, err := loadAppConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.initConfig {
		if err := saveAppConfig(opts.configPath, cfg); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Println("Config written; fill in the clip model paths before running.")
		return nil
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)

	datasets := zeroshot.BuiltinDatasets()
	if opts.datasetsPath != "" {
		extra, err := zeroshot.LoadDatasetFile(opts.datasetsPath)
		if err != nil {
			return fmt.Errorf("load datasets: %w", err)
		}
		for name, ds := range extra {
			datasets[name] = ds
		}
	}
	dataset, ok := datasets[opts.dataset]
	if !ok {
		return fmt.Errorf("unknown dataset %q", opts.dataset)
	}

	ctx := context.Background()
	normalizer := zeroshot.NewNormalizer(cfg.DataRoot, &lazyDownloader{logger: logger}, logger)
	classMap, err := normalizer.Normalize(ctx, dataset, opts.split)
	if err != nil {
		return fmt.Errorf("normalize %s: %w", opts.dataset, err)
	}

	pre, err := clip.NewPreprocessor(cfg.Clip)
	if err != nil {
		return fmt.Errorf("init preprocessor: %w", err)
	}
	model, err := clip.NewModel(cfg.Clip)
	if err != nil {
		return fmt.Errorf("init model: %w", err)
	}
	defer model.Close()

	switch opts.mode {
	case "classify":
		prompts := dataset.Prompts()
		if opts.promptsPath != "" {
			prompts, err = readPrompts(opts.promptsPath)
			if err != nil {
				return err
			}
		}
		return runClassify(ctx, opts, model, pre, classMap, prompts)
	case "embed":
		return runEmbed(ctx, opts, model, pre, classMap)
	}
	return nil
}

// lazyDownloader defers Kaggle credential resolution until a download is
// actually needed, so staged datasets work without any credentials.
type lazyDownloader struct {
	logger *log.Logger
}

func (d *lazyDownloader) Download(ctx context.Context, ref, dest string) error {
	client, err := kaggle.NewClient(d.logger)
	if err != nil {
		return err
	}
	return client.Download(ctx, ref, dest)
}

func runClassify(ctx context.Context, opts cliOptions, model zeroshot.Model, pre zeroshot.Preprocessor, classMap *zeroshot.ClassMap, prompts []string) error {
	predictions, groundTruth, err := zeroshot.Classify(ctx, model, pre, classMap, prompts)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	outputPath, err := resolveOutputPath(opts.outputPath, opts.outputDir, "csv")
	if err != nil {
		return err
	}
	if err := writeClassifyCSV(outputPath, classMap, predictions, groundTruth); err != nil {
		return err
	}
	accuracy := zeroshot.Accuracy(predictions, groundTruth)
	fmt.Printf("Wrote %d predictions to %s (accuracy %.3f)\n", len(predictions), outputPath, accuracy)
	if opts.stdout {
		printClassSummary(classMap, predictions, groundTruth)
	}
	return nil
}

func runEmbed(ctx context.Context, opts cliOptions, model zeroshot.Model, pre zeroshot.Preprocessor, classMap *zeroshot.ClassMap) error {
	embeddings, groundTruth, err := zeroshot.Embed(ctx, model, pre, classMap)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	outputPath, err := resolveOutputPath(opts.outputPath, opts.outputDir, "bin")
	if err != nil {
		return err
	}
	if err := zeroshot.WriteMatrix(outputPath, embeddings); err != nil {
		return err
	}
	labelsPath := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".labels.csv"
	if err := writeLabelsCSV(labelsPath, classMap, groundTruth); err != nil {
		return err
	}
	fmt.Printf("Wrote %dx%d embeddings to %s (labels in %s)\n",
		embeddings.Rows, embeddings.Cols, outputPath, labelsPath)
	return nil
}

func readPrompts(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prompts: %w", err)
	}
	defer f.Close()
	var prompts []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			prompts = append(prompts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}
	return prompts, nil
}

func resolveOutputPath(path, dir, ext string) (string, error) {
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return absPath, nil
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	filename := fmt.Sprintf("result_%s.%s", time.Now().Format("20060102150405"), ext)
	return filepath.Join(absDir, filename), nil
}

func writeClassifyCSV(path string, classMap *zeroshot.ClassMap, predictions, groundTruth []int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	defer f.Close()

	classes := classMap.Classes()
	writer := csv.NewWriter(f)
	if err := writer.Write([]string{"file", "class", "predicted", "correct"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	k := 0
	for _, class := range classes {
		for _, file := range classMap.Files(class) {
			row := []string{
				file,
				class,
				classes[predictions[k]],
				strconv.FormatBool(predictions[k] == groundTruth[k]),
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("write row %d: %w", k, err)
			}
			k++
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush result: %w", err)
	}
	return nil
}

func writeLabelsCSV(path string, classMap *zeroshot.ClassMap, groundTruth []int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create labels file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write([]string{"row", "file", "label", "class"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	classes := classMap.Classes()
	k := 0
	for _, class := range classes {
		for _, file := range classMap.Files(class) {
			row := []string{
				strconv.Itoa(k),
				file,
				strconv.Itoa(groundTruth[k]),
				class,
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("write row %d: %w", k, err)
			}
			k++
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush labels: %w", err)
	}
	return nil
}

func printClassSummary(classMap *zeroshot.ClassMap, predictions, groundTruth []int) {
	fmt.Println()
	fmt.Println("==== Per-class accuracy ====")
	classes := classMap.Classes()
	correct := make([]int, len(classes))
	total := make([]int, len(classes))
	for k, label := range groundTruth {
		total[label]++
		if predictions[k] == label {
			correct[label]++
		}
	}
	for i, class := range classes {
		if total[i] == 0 {
			continue
		}
		fmt.Printf("  %-20s %3d/%3d (%.3f)\n", class, correct[i], total[i],
			float64(correct[i])/float64(total[i]))
	}
}
