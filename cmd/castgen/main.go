// Castgen derives the castability contract for struct types.
//
// Given a package and a list of type names, it verifies with go/types
// that every bit pattern of each type is a valid value (fixed-size
// integers and floats only, no pointers, no padding) and emits a
// generated file that locks the result in:
//
//	castgen -pkg ./format -out format_castable.gen.go Header Section
//
// The generated file registers each type at init time via
// membuf.MustRegister and pins its size with a compile-time assertion,
// so a later edit that introduces padding or a non-castable field fails
// the build or the first test run instead of corrupting casts at
// runtime.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/format"
	"go/types"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/tools/go/packages"
)

var (
	inPkg   = flag.String("pkg", ".", "package path/pattern holding the type definitions")
	outFile = flag.String("out", "", "output file (default <package>_castable.gen.go in the package directory)")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage of castgen:\n")
	fmt.Fprintf(os.Stderr, "\tcastgen -pkg '...' [-out '...'] types...\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	flag.PrintDefaults()
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("castgen: ")

	flag.Usage = usage
	flag.Parse()
	if len(flag.Args()) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	pkg, err := loadPackage(*inPkg)
	if err != nil {
		log.Fatal(err)
	}

	sizes := sizesFor(pkg)
	scope := pkg.Types.Scope()

	var specs []typeSpec
	for _, name := range flag.Args() {
		obj := scope.Lookup(name)
		if obj == nil {
			log.Fatalf("type %s not found in package %s", name, pkg.PkgPath)
		}
		tn, ok := obj.(*types.TypeName)
		if !ok {
			log.Fatalf("%s is not a type", name)
		}
		if err := checkCastable(tn.Type(), sizes); err != nil {
			log.Fatalf("type %s: %v", name, err)
		}
		specs = append(specs, typeSpec{
			Name: name,
			Size: sizes.Sizeof(tn.Type()),
		})
	}

	src, err := emit(pkg.Types.Name(), specs)
	if err != nil {
		log.Fatal(err)
	}

	out := *outFile
	if out == "" {
		dir := "."
		if len(pkg.GoFiles) > 0 {
			dir = filepath.Dir(pkg.GoFiles[0])
		}
		out = filepath.Join(dir, pkg.Types.Name()+"_castable.gen.go")
	}
	if err := os.WriteFile(out, src, 0o644); err != nil {
		log.Fatalf("writing output: %s", err)
	}
}

func loadPackage(pattern string) (*packages.Package, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedTypes |
			packages.NeedTypesSizes | packages.NeedTypesInfo | packages.NeedImports,
	}
	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, err
	}
	if len(pkgs) != 1 {
		return nil, fmt.Errorf("pattern %q matched %d packages, want exactly 1", pattern, len(pkgs))
	}
	if len(pkgs[0].Errors) > 0 {
		return nil, fmt.Errorf("package %s has errors: %v", pkgs[0].PkgPath, pkgs[0].Errors[0])
	}
	return pkgs[0], nil
}

func sizesFor(pkg *packages.Package) types.Sizes {
	if pkg.TypesSizes != nil {
		return pkg.TypesSizes
	}
	return types.SizesFor("gc", "amd64")
}

type typeSpec struct {
	Name string
	Size int64
}

// emit renders the generated registration file.
func emit(pkgName string, specs []typeSpec) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "// Code generated by castgen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", pkgName)
	fmt.Fprintf(&buf, "import (\n")
	fmt.Fprintf(&buf, "\t\"unsafe\"\n\n")
	fmt.Fprintf(&buf, "\t\"github.com/hupe1980/membuf\"\n")
	fmt.Fprintf(&buf, ")\n\n")

	for _, s := range specs {
		fmt.Fprintf(&buf, "// %s: %d bytes, every bit pattern valid.\n", s.Name, s.Size)
		fmt.Fprintf(&buf, "var _ = membuf.MustRegister[%s]()\n\n", s.Name)
		fmt.Fprintf(&buf, "// Fails to compile if the size of %s changes.\n", s.Name)
		fmt.Fprintf(&buf, "var _ = [1]struct{}{}[unsafe.Sizeof(*new(%s))-%d]\n\n", s.Name, s.Size)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated code: %w\n%s", err, buf.String())
	}

	return src, nil
}
