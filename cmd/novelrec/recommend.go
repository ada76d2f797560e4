package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/recommend"
)

var recommendFlags struct {
	gender      string
	birthYear   int
	occupation  string
	readingTime string
	size        int
	asJSON      bool
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Print recommendations for a new user",
	Example: `  novelrec recommend --gender 男 --birth-year 2005 --occupation 学生 --reading-time 1-3小时 --size 10`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		f := recommendFlags
		resp, err := a.service.Recommend(cmd.Context(), recommend.Request{
			Demographics: core.Demographics{
				Gender:      core.Gender(f.gender),
				BirthYear:   f.birthYear,
				Occupation:  core.Occupation(f.occupation),
				ReadingTime: core.ReadingTime(f.readingTime),
			},
			Size: &f.size,
		})
		if err != nil {
			return err
		}
		if f.asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}
		return printTable(resp)
	},
}

func init() {
	fl := recommendCmd.Flags()
	fl.StringVar(&recommendFlags.gender, "gender", string(core.GenderUndisclosed), "性别：男 / 女 / 不想透露")
	fl.IntVar(&recommendFlags.birthYear, "birth-year", 2000, "出生年份")
	fl.StringVar(&recommendFlags.occupation, "occupation", string(core.OccupationUndisclosed), "职业：学生 / 上班族 / 自由职业者 / 退休 / 不想透露")
	fl.StringVar(&recommendFlags.readingTime, "reading-time", string(core.Reading1To3Hours), "每周阅读时长")
	fl.IntVarP(&recommendFlags.size, "size", "n", recommend.DefaultSize, "返回条数")
	fl.BoolVar(&recommendFlags.asJSON, "json", false, "以 JSON 输出")
}

func printTable(resp *recommend.Response) error {
	fmt.Printf("preferred tags: %v\n", resp.PreferredTags)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tTITLE\tAUTHOR\tPLATFORM\tRATING\tSCORE\tSOURCE")
	for i, r := range resp.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
			i+1, r.ID, r.Title, r.Author, r.Platform, r.PlatformRating, r.Score, r.Source)
	}
	return w.Flush()
}
