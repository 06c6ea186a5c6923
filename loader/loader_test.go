// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package loader_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	router "github.com/routeforge/routeforge"
	"github.com/routeforge/routeforge/loader"
)

func sampleDescriptors() loader.Descriptors {
	return loader.Descriptors{
		Endpoints: []loader.EndpointDescriptor{
			{
				Verbs:   []string{"GET"},
				Path:    "/ping",
				Handler: func(req *router.Request, res *router.Response) (any, error) { return "pong", nil },
			},
		},
	}
}

var _ = Describe("Loader", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "loader-spec-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	Describe("Load with no path", func() {
		It("fails with ErrMissingPath", func() {
			l := loader.New(loader.StaticAnnotationSource{Descriptors: sampleDescriptors()})
			_, err := l.Load("")
			Expect(errors.Is(err, router.ErrMissingPath)).To(BeTrue())
		})
	})

	Describe("Load given a file path", func() {
		It("builds a router from the annotation source's descriptors", func() {
			file := filepath.Join(dir, "plumber.go")
			Expect(os.WriteFile(file, []byte("// stand-in definition file\n"), 0o644)).To(Succeed())

			l := loader.New(loader.StaticAnnotationSource{Descriptors: sampleDescriptors()})
			r, err := l.Load(file)
			Expect(err).NotTo(HaveOccurred())
			Expect(r).NotTo(BeNil())

			req := &router.Request{Verb: "GET", Path: "/ping"}
			res := &router.Response{}
			r.Call(req, res)
			Expect(res.Status).To(Equal(200))
		})

		It("rejects a nonexistent file with ErrFileNotFound", func() {
			l := loader.New(loader.StaticAnnotationSource{Descriptors: sampleDescriptors()})
			_, err := l.Load(filepath.Join(dir, "missing.go"))
			Expect(errors.Is(err, router.ErrFileNotFound)).To(BeTrue())
		})
	})

	Describe("LoadFile given a directory", func() {
		It("fails with ErrIsDirectory rather than resolving directory mode", func() {
			l := loader.New(loader.StaticAnnotationSource{Descriptors: sampleDescriptors()})
			_, err := l.LoadFile(dir)
			Expect(errors.Is(err, router.ErrIsDirectory)).To(BeTrue())
		})
	})

	Describe("Load given a directory", func() {
		Context("with no entrypoint and no default definition file", func() {
			It("fails with ErrNoDefinitionFound", func() {
				l := loader.New(loader.StaticAnnotationSource{Descriptors: sampleDescriptors()})
				_, err := l.Load(dir)
				Expect(errors.Is(err, router.ErrNoDefinitionFound)).To(BeTrue())
			})
		})

		Context("with a default plumber.go definition file present", func() {
			It("loads through the annotation source", func() {
				Expect(os.WriteFile(filepath.Join(dir, loader.DefaultDefinitionFile), []byte("// definition\n"), 0o644)).To(Succeed())

				l := loader.New(loader.StaticAnnotationSource{Descriptors: sampleDescriptors()})
				r, err := l.Load(dir)
				Expect(err).NotTo(HaveOccurred())
				Expect(r).NotTo(BeNil())
			})
		})

		Context("with an entrypoint.go file present", func() {
			It("prefers the bound entrypoint over the default definition file", func() {
				Expect(os.WriteFile(filepath.Join(dir, loader.DefaultEntrypointFile), []byte("// entrypoint\n"), 0o644)).To(Succeed())
				Expect(os.WriteFile(filepath.Join(dir, loader.DefaultDefinitionFile), []byte("// unused\n"), 0o644)).To(Succeed())

				env := router.NewEnvironment()
				built, err := router.New()
				Expect(err).NotTo(HaveOccurred())
				env.Bind(loader.EntrypointBinding, loader.EntrypointFunc(func() (*router.Router, error) {
					return built, nil
				}))

				l := loader.New(loader.StaticAnnotationSource{Descriptors: sampleDescriptors()}, loader.WithEnvironment(env))
				r, err := l.Load(dir)
				Expect(err).NotTo(HaveOccurred())
				Expect(r).To(BeIdenticalTo(built))
			})

			It("fails with ErrBadEntrypoint when no entrypoint is bound", func() {
				Expect(os.WriteFile(filepath.Join(dir, loader.DefaultEntrypointFile), []byte("// entrypoint\n"), 0o644)).To(Succeed())

				l := loader.New(loader.StaticAnnotationSource{Descriptors: sampleDescriptors()})
				_, err := l.Load(dir)
				Expect(errors.Is(err, router.ErrBadEntrypoint)).To(BeTrue())
			})

			It("fails with ErrBadEntrypoint when the entrypoint returns a nil router", func() {
				Expect(os.WriteFile(filepath.Join(dir, loader.DefaultEntrypointFile), []byte("// entrypoint\n"), 0o644)).To(Succeed())

				env := router.NewEnvironment()
				env.Bind(loader.EntrypointBinding, loader.EntrypointFunc(func() (*router.Router, error) {
					return nil, nil
				}))

				l := loader.New(loader.StaticAnnotationSource{Descriptors: sampleDescriptors()}, loader.WithEnvironment(env))
				_, err := l.Load(dir)
				Expect(errors.Is(err, router.ErrBadEntrypoint)).To(BeTrue())
			})
		})
	})
})
