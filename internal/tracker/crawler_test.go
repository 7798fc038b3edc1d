package tracker

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ScanRoot", func() {
	var (
		refs    *References
		root    string
		batches []FolderBatch
		err     error
	)

	BeforeEach(func() {
		refs = writeReferenceFiles(GinkgoT().TempDir())
		root = GinkgoT().TempDir()
	})

	JustBeforeEach(func() {
		batches, err = ScanRoot(root, refs.Patterns)
	})

	When("the root holds shipment folders", func() {
		BeforeEach(func() {
			writeShipmentTree(root, map[string][]string{
				"INV02": {"INV02_INV.pdf"},
				"INV01": {"106123456789_TK.pdf", "notes.txt"},
			})
			// Loose files in the root itself are not part of any shipment
			Expect(os.WriteFile(filepath.Join(root, "stray.pdf"), []byte("x"), 0o644)).To(Succeed())
		})

		It("should return one batch per folder, sorted", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(batches).To(HaveLen(2))
			Expect(batches[0].Invoice).To(Equal("INV01"))
			Expect(batches[1].Invoice).To(Equal("INV02"))
		})

		It("should classify each file by its stem", func() {
			Expect(batches[0].Files).To(HaveLen(2))
			Expect(batches[0].Files[0].DocType).To(Equal("D01"))
			Expect(batches[0].Files[0].Stem).To(Equal("106123456789_TK"))
			Expect(batches[0].Files[1].DocType).To(Equal("UNKNOWN"))
		})

		It("should derive the 11-digit declaration key", func() {
			Expect(batches[0].Files[0].CDs11).To(Equal("10612345678"))
		})

		It("should tag files with their folder's invoice", func() {
			Expect(batches[1].Files[0].Invoice).To(Equal("INV02"))
		})
	})

	When("a shipment folder has nested directories", func() {
		BeforeEach(func() {
			writeShipmentTree(root, map[string][]string{"INV01": {"INV01_INV.pdf"}})
			Expect(os.MkdirAll(filepath.Join(root, "INV01", "archive"), 0o755)).To(Succeed())
		})

		It("should not descend into them", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(batches[0].Files).To(HaveLen(1))
		})
	})

	When("the root is empty", func() {
		It("should return no batches", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(batches).To(BeEmpty())
		})
	})

	When("the root does not exist", func() {
		BeforeEach(func() {
			root = filepath.Join(root, "missing")
		})

		It("should return an error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})
