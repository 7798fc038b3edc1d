package rules

import (
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Normalize", func() {
	It("should map empty cells to Null", func() {
		Expect(Normalize("")).To(Equal(ReqNull))
		Expect(Normalize("   ")).To(Equal(ReqNull))
	})

	It("should map null spellings to Null regardless of case", func() {
		Expect(Normalize("Null")).To(Equal(ReqNull))
		Expect(Normalize("NULL")).To(Equal(ReqNull))
		Expect(Normalize("NaN")).To(Equal(ReqNull))
		Expect(Normalize("none")).To(Equal(ReqNull))
	})

	It("should pass other values through trimmed", func() {
		Expect(Normalize(" Yes ")).To(Equal(Requirement("Yes")))
		Expect(Normalize("{INVOICE}")).To(Equal(Requirement("{INVOICE}")))
	})
})

var _ = Describe("Requirement", func() {
	It("should detect the invoice placeholder", func() {
		Expect(Requirement("{INVOICE}").NeedsInvoice()).To(BeTrue())
		Expect(Requirement("Yes, {INVOICE} required").NeedsInvoice()).To(BeTrue())
		Expect(Requirement("Yes").NeedsInvoice()).To(BeFalse())
	})
})

var _ = Describe("LoadTable", func() {
	var (
		tmpDir string
		table  *RuleTable
		err    error
	)

	header := "CDsType," + strings.Join(DocTypes(), ",")

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	When("loading a well-formed matrix", func() {
		BeforeEach(func() {
			csv := header + "\n" +
				"A11,Yes,{INVOICE},Null,,,,,Yes,,,,\n" +
				"E42,Yes,Yes,Yes,,,,,,,,,\n"
			table, err = LoadTable(writeFile(tmpDir, "template.csv", []byte(csv)))
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should load both declaration types", func() {
			Expect(table.Len()).To(Equal(2))
		})

		It("should normalize each cell", func() {
			reqs := table.Requirements("A11")
			Expect(reqs["D01"]).To(Equal(Requirement("Yes")))
			Expect(reqs["D02"]).To(Equal(Requirement("{INVOICE}")))
			Expect(reqs["D03"]).To(Equal(ReqNull))
			Expect(reqs["D04"]).To(Equal(ReqNull))
			Expect(reqs["D08"]).To(Equal(Requirement("Yes")))
		})

		It("should expose the first row as the fallback rule set", func() {
			Expect(table.First()).To(Equal(table.Requirements("A11")))
		})
	})

	When("rows are shorter than thirteen columns", func() {
		BeforeEach(func() {
			csv := header + "\nA11,Yes,Yes\n"
			table, err = LoadTable(writeFile(tmpDir, "template.csv", []byte(csv)))
		})

		It("should fill the missing cells with Null", func() {
			Expect(err).NotTo(HaveOccurred())
			reqs := table.Requirements("A11")
			Expect(reqs["D02"]).To(Equal(Requirement("Yes")))
			Expect(reqs["D03"]).To(Equal(ReqNull))
			Expect(reqs["D12"]).To(Equal(ReqNull))
		})
	})

	When("a Note row starts the comment block", func() {
		BeforeEach(func() {
			csv := header + "\n" +
				"A11,Yes,,,,,,,,,,,\n" +
				"Note: all cells after this line are commentary\n" +
				"E42,Yes,,,,,,,,,,,\n"
			table, err = LoadTable(writeFile(tmpDir, "template.csv", []byte(csv)))
		})

		It("should stop reading at the Note row", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Len()).To(Equal(1))
			Expect(table.Requirements("E42")).To(BeNil())
		})
	})

	When("the file is empty", func() {
		BeforeEach(func() {
			table, err = LoadTable(writeFile(tmpDir, "template.csv", nil))
		})

		It("should return an empty table", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Len()).To(Equal(0))
			Expect(table.First()).To(BeNil())
		})
	})

	When("the file does not exist", func() {
		BeforeEach(func() {
			table, err = LoadTable(filepath.Join(tmpDir, "missing.csv"))
		})

		It("should return an error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})
