package php

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/gobwas/glob"
	"github.com/shopware/php-analyser/internal/observability"
	"golang.org/x/sync/errgroup"
)

var defaultSkipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	".github":      true,
	".idea":        true,
	".vscode":      true,
}

// Index holds the declarations of every parsed file. Class and function names are
// looked up case-insensitively like PHP does.
type Index struct {
	mu        sync.RWMutex
	files     map[string]*File
	classes   map[string]*ClassDecl
	functions map[string]*FunctionDecl
	store     *DeclarationStore
}

func NewIndex() *Index {
	return &Index{
		files:     make(map[string]*File),
		classes:   make(map[string]*ClassDecl),
		functions: make(map[string]*FunctionDecl),
	}
}

// WithStore makes the index reuse declarations of unchanged files from store
func (idx *Index) WithStore(store *DeclarationStore) *Index {
	idx.store = store
	return idx
}

// AddFile registers the declarations of file, replacing an earlier version of the same path
func (idx *Index) AddFile(file *File) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeLocked(file.Path)
	idx.files[file.Path] = file

	for _, class := range file.Classes {
		key := strings.ToLower(class.Name)
		if existing, ok := idx.classes[key]; ok && existing.File != file.Path {
			log.Debugf("class %s declared in %s and %s, keeping the first", class.Name, existing.File, file.Path)
			continue
		}
		idx.classes[key] = class
	}
	for _, function := range file.Functions {
		key := strings.ToLower(function.Name)
		if _, ok := idx.functions[key]; ok {
			continue
		}
		idx.functions[key] = function
	}

	observability.DeclarationsIndexed.WithLabelValues("class").Add(float64(len(file.Classes)))
	observability.DeclarationsIndexed.WithLabelValues("function").Add(float64(len(file.Functions)))
	observability.DeclarationsIndexed.WithLabelValues("anonymous_class").Add(float64(len(file.AnonymousClasses)))
}

// AddSource parses content with parser and registers the result under path
func (idx *Index) AddSource(parser *Parser, path string, content []byte) (*File, error) {
	file, err := parser.ParseSource(path, content)
	if err != nil {
		return nil, err
	}
	idx.AddFile(file)
	return file, nil
}

// RemoveFile drops every declaration of path
func (idx *Index) RemoveFile(path string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeLocked(path)
}

func (idx *Index) removeLocked(path string) {
	file, ok := idx.files[path]
	if !ok {
		return
	}
	delete(idx.files, path)

	for _, class := range file.Classes {
		key := strings.ToLower(class.Name)
		if existing, ok := idx.classes[key]; ok && existing == class {
			delete(idx.classes, key)
		}
	}
	for _, function := range file.Functions {
		key := strings.ToLower(function.Name)
		if existing, ok := idx.functions[key]; ok && existing == function {
			delete(idx.functions, key)
		}
	}
}

// FindClass returns the class, interface, trait or enum with the given fully qualified name
func (idx *Index) FindClass(name string) (*ClassDecl, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	class, ok := idx.classes[strings.ToLower(strings.TrimPrefix(name, "\\"))]
	return class, ok
}

// FindFunction returns the function with the given fully qualified name
func (idx *Index) FindFunction(name string) (*FunctionDecl, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	function, ok := idx.functions[strings.ToLower(strings.TrimPrefix(name, "\\"))]
	return function, ok
}

// File returns the parsed declarations of path
func (idx *Index) File(path string) (*File, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	file, ok := idx.files[path]
	return file, ok
}

// AnonymousClasses returns the anonymous classes declared in path
func (idx *Index) AnonymousClasses(path string) []*ClassDecl {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if file, ok := idx.files[path]; ok {
		return file.AnonymousClasses
	}
	return nil
}

// Files returns the indexed paths in sorted order
func (idx *Index) Files() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	paths := make([]string, 0, len(idx.files))
	for path := range idx.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// ClassNames returns the fully qualified names of all indexed classes in sorted order
func (idx *Index) ClassNames() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	names := make([]string, 0, len(idx.classes))
	for _, class := range idx.classes {
		names = append(names, class.Name)
	}
	sort.Strings(names)
	return names
}

// CompileExcludes compiles exclude globs matched against slash separated paths relative to the scan root
func CompileExcludes(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func excluded(excludes []glob.Glob, relPath string) bool {
	for _, g := range excludes {
		if g.Match(relPath) {
			return true
		}
	}
	return false
}

// Scan parses every PHP file below root that is not excluded. Files are parsed in
// parallel, every worker owns its own parser.
func (idx *Index) Scan(ctx context.Context, root string, excludes []glob.Glob) error {
	files, err := collectPHPFiles(root, excludes)
	if err != nil {
		return err
	}

	workerCount := min(runtime.NumCPU()+2, 16)
	parsers := make(chan *Parser, workerCount)
	defer func() {
		close(parsers)
		for parser := range parsers {
			parser.Close()
		}
	}()
	for range workerCount {
		parser, err := NewParser()
		if err != nil {
			return err
		}
		parsers <- parser
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount)

	for _, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			parser := <-parsers
			defer func() { parsers <- parser }()

			if err := idx.indexFile(parser, path); err != nil {
				log.Warningf("skipping %s: %v", path, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to scan %s: %w", root, err)
	}

	log.Infof("indexed %d files below %s", len(files), root)
	return nil
}

func (idx *Index) indexFile(parser *Parser, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if idx.store != nil {
		if file, ok := idx.store.Load(path, xxhash.Sum64(content)); ok {
			observability.FilesReused.Inc()
			idx.AddFile(file)
			return nil
		}
	}

	file, err := idx.AddSource(parser, path, content)
	if err != nil {
		return err
	}
	observability.FilesIndexed.Inc()

	if idx.store != nil {
		if err := idx.store.Save(file); err != nil {
			log.Warningf("failed to persist declarations of %s: %v", path, err)
		}
	}
	return nil
}

func collectPHPFiles(root string, excludes []glob.Glob) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if path != root && (defaultSkipDirs[d.Name()] || excluded(excludes, relPath) || excluded(excludes, relPath+"/")) {
				return filepath.SkipDir
			}
			return nil
		}

		if !isPHPFile(path) || excluded(excludes, relPath) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return files, nil
}

var scannedFileTypes = []string{".php", ".phtml", ".inc"}

func isPHPFile(path string) bool {
	return slices.Contains(scannedFileTypes, strings.ToLower(filepath.Ext(path)))
}
