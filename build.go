//go:build ignore

// build.go - brewsignal build script
// Usage: go run build.go [-target=TARGET]
// Targets: all, server, bd-report, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"
)

// Binaries to build (key = directory under cmd/, value = output name)
var executables = map[string]string{
	"server":    "brewsignal",
	"bd-report": "bd-report",
}

var distDir = "dist"

var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

// buildContext holds the options shared by every target
type buildContext struct {
	Verbose bool
	GOOS    string
	GOARCH  string
}

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	goos := flag.String("os", runtime.GOOS, "Target operating system for release builds")
	goarch := flag.String("arch", runtime.GOARCH, "Target architecture for release builds")
	flag.Parse()

	printHeader()
	startTime := time.Now()

	ctx := &buildContext{Verbose: *verbose, GOOS: *goos, GOARCH: *goarch}

	switch *target {
	case "all":
		buildAll(ctx)
	case "server", "bd-report":
		buildExecutable(*target, ctx, false)
	case "test":
		runTests(ctx)
	case "clean":
		clean()
	case "release":
		buildRelease(ctx)
	default:
		showHelp()
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "        brewsignal - Build System       " + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARNING]%s %s\n", colorYellow, colorReset, msg)
}

func buildAll(ctx *buildContext) {
	printInfo("Building all binaries...")
	if err := os.MkdirAll(distDir, 0o755); err != nil {
		printError(fmt.Sprintf("Failed to create %s: %v", distDir, err))
		os.Exit(1)
	}

	names := make([]string, 0, len(executables))
	for name := range executables {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		buildExecutable(name, ctx, false)
	}
	printSuccess("All binaries built successfully!")
}

func buildExecutable(name string, ctx *buildContext, release bool) {
	exeName := executables[name]
	if ctx.GOOS == "windows" {
		exeName += ".exe"
	}
	outputPath := filepath.Join(distDir, exeName)
	if release {
		outputPath = filepath.Join(distDir, ctx.GOOS+"_"+ctx.GOARCH, exeName)
	}

	printInfo(fmt.Sprintf("Building %s...", name))

	args := []string{"build"}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	if release {
		args = append(args, "-trimpath", "-ldflags", "-s -w")
	}
	args = append(args, "-o", outputPath, "./cmd/"+name)

	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(), "GOOS="+ctx.GOOS, "GOARCH="+ctx.GOARCH)
	if release {
		cmd.Env = append(cmd.Env, "CGO_ENABLED=0")
	}
	cmd.Stderr = os.Stderr
	if ctx.Verbose {
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
	}

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", name, err))
		os.Exit(1)
	}

	if info, err := os.Stat(outputPath); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", outputPath, float64(info.Size())/1024/1024))
	}
}

func runTests(ctx *buildContext) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
	printSuccess("All tests passed")
}

func clean() {
	printInfo("Cleaning build artifacts...")
	for _, dir := range []string{distDir, "reports", "logs"} {
		if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
			printWarning(fmt.Sprintf("Failed to remove %s: %v", dir, err))
		}
	}
	printSuccess("Build artifacts cleaned")
}

func buildRelease(ctx *buildContext) {
	printInfo(fmt.Sprintf("Building release for %s/%s...", ctx.GOOS, ctx.GOARCH))
	clean()
	if err := os.MkdirAll(filepath.Join(distDir, ctx.GOOS+"_"+ctx.GOARCH), 0o755); err != nil {
		printError(fmt.Sprintf("Failed to create release directory: %v", err))
		os.Exit(1)
	}
	for name := range executables {
		buildExecutable(name, ctx, true)
	}

	versionFile := filepath.Join(distDir, ctx.GOOS+"_"+ctx.GOARCH, "VERSION.txt")
	content := fmt.Sprintf("brewsignal release\nPlatform: %s/%s\nBuilt: %s\n",
		ctx.GOOS, ctx.GOARCH, time.Now().Format(time.DateTime))
	if err := os.WriteFile(versionFile, []byte(content), 0o644); err != nil {
		printWarning(fmt.Sprintf("Failed to write %s: %v", versionFile, err))
	}
	printSuccess("Release build completed")
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v] [-os=GOOS] [-arch=GOARCH]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all         Build every binary into dist/ (default)")
	fmt.Println("  server      Build the HTTP and what-if server only")
	fmt.Println("  bd-report   Build the offline ranking report tool only")
	fmt.Println("  test        Run all Go tests with the race detector")
	fmt.Println("  clean       Remove dist/, reports/ and logs/")
	fmt.Println("  release     Build stripped binaries for -os/-arch")
}
