package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/darasa/core/catalog"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sqlx.DB
	usrRepo  user.Repository
	catRepo  catalog.Repository
	quizRepo quiz.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate up|down|status|version ...                 - manage DB migrations")
	fmt.Println("  addparent -name NAME -email EMAIL                  - create a parent account (password prompted)")
	fmt.Println("  addsubject -name NAME -classno N                   - create a subject")
	fmt.Println("  addchapter -subject SUBJECT_ID -name NAME [-video URL] - append a chapter to a subject")
	fmt.Println("  seedquestions                                      - load the bundled quiz question fixtures")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addParentCmd := flag.NewFlagSet("addparent", flag.ExitOnError)
	addParentName := addParentCmd.String("name", "", "The parent's full name.")
	addParentEmail := addParentCmd.String("email", "", "The parent's email. The password will be prompted next.")

	addSubjectCmd := flag.NewFlagSet("addsubject", flag.ExitOnError)
	addSubjectName := addSubjectCmd.String("name", "", "The subject name.")
	addSubjectCohort := addSubjectCmd.Int("classno", 0, "The class number the subject belongs to.")

	addChapterCmd := flag.NewFlagSet("addchapter", flag.ExitOnError)
	addChapterSubject := addChapterCmd.String("subject", "", "The subject ID.")
	addChapterName := addChapterCmd.String("name", "", "The chapter name.")
	addChapterVideo := addChapterCmd.String("video", "", "The chapter video URL.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addparent":
		if err := addParentCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addParentName == "" || *addParentEmail == "" {
			addParentCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addParentCmd.Usage()
			return errHelp
		}
		return cli.addParent(*addParentName, *addParentEmail, string(pwd))
	case "addsubject":
		if err := addSubjectCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addSubjectName == "" || *addSubjectCohort == 0 {
			addSubjectCmd.Usage()
			return errHelp
		}
		return cli.addSubject(*addSubjectName, *addSubjectCohort)
	case "addchapter":
		if err := addChapterCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addChapterSubject == "" || *addChapterName == "" {
			addChapterCmd.Usage()
			return errHelp
		}
		return cli.addChapter(*addChapterSubject, *addChapterName, *addChapterVideo)
	case "seedquestions":
		return cli.seedQuestions()
	default:
		cli.printUsage()
		return errHelp
	}
}
