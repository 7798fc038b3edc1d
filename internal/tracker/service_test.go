package tracker

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fixedTimeSource pins the clock for deterministic artifact names
type fixedTimeSource struct {
	now time.Time
}

func (t *fixedTimeSource) Now() time.Time {
	return t.now
}

var _ = Describe("Service", func() {
	var (
		service *Service
		root    string
	)

	BeforeEach(func() {
		refs := writeReferenceFiles(GinkgoT().TempDir())
		service = NewServiceWithDeps(refs, &fixedTimeSource{
			now: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
		})
		root = GinkgoT().TempDir()
	})

	Describe("Run", func() {
		var (
			master *MasterIndex
			result *RunResult
			err    error
		)

		BeforeEach(func() {
			master = nil
		})

		JustBeforeEach(func() {
			result, err = service.Run(root, master)
		})

		When("a master list is supplied", func() {
			BeforeEach(func() {
				master = loadTestMaster("CDs No.,Invoice No,CDs Type,Bill No\n" +
					"106123456789,INV01,A11,BILL9\n")
				writeShipmentTree(root, map[string][]string{
					"INV01": {"106123456789_TK.pdf", "INV01_INV.pdf", "INV01_FCR_BILL9.pdf"},
				})
			})

			It("should run in per-CDs mode", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Report.Mode).To(Equal(ModePerCDs))
			})

			It("should write the artifacts into the root", func() {
				Expect(err).NotTo(HaveOccurred())
				_, statErr := os.Stat(filepath.Join(root, result.CSVName))
				Expect(statErr).NotTo(HaveOccurred())
				_, statErr = os.Stat(filepath.Join(root, ManifestName))
				Expect(statErr).NotTo(HaveOccurred())
			})
		})

		When("no master list is supplied", func() {
			BeforeEach(func() {
				writeShipmentTree(root, map[string][]string{
					"INV01": {"INV01_INV.pdf"},
				})
			})

			It("should fall back to per-invoice mode", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Report.Mode).To(Equal(ModePerInvoice))
			})
		})

		When("the root holds no files", func() {
			It("should return ErrNoFiles", func() {
				Expect(err).To(MatchError(ErrNoFiles))
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

		When("the root is a file", func() {
			BeforeEach(func() {
				root = filepath.Join(root, "file.txt")
				Expect(os.WriteFile(root, []byte("x"), 0o644)).To(Succeed())
			})

			It("should return an error", func() {
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("CheckAccess", func() {
		It("should pass for a writable directory", func() {
			Expect(service.CheckAccess(root)).To(Succeed())
		})

		It("should clean up the probe file", func() {
			Expect(service.CheckAccess(root)).To(Succeed())
			_, err := os.Stat(filepath.Join(root, ".access_check.tmp"))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("should fail for a missing path", func() {
			Expect(service.CheckAccess(filepath.Join(root, "missing"))).NotTo(Succeed())
		})
	})
})

var _ = Describe("LoadReferences", func() {
	It("should fail when the reference files are absent", func() {
		_, err := LoadReferences(GinkgoT().TempDir())
		Expect(err).To(HaveOccurred())
	})
})
