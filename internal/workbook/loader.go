// Package workbook reads and writes the campaign workbook: a directory of
// CSV sheets (LIST, MSGS, DOCS, MEDIA, SETTINGS) that holds the contact
// list, message templates, attachment mappings, run settings, and the
// per-contact delivery status.
package workbook

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Kuruzyy/excelwablaster/internal/domain"
)

// Attachment file columns, in send order. Blank cells are filtered out.
var (
	docFileColumns   = []string{"BROCHURE_1", "BROCHURE_2", "BROCHURE_3", "BROCHURE_4"}
	mediaFileColumns = []string{"MEDIA_1", "MEDIA_2", "MEDIA_3", "MEDIA_4"}
)

// Setting names in the SETTINGS sheet.
const (
	settingXPathText   = "XPATH_TEXT"
	settingXPathSend   = "XPATH_SEND"
	settingXPathAttach = "XPATH_ATTACH"
	settingXPathASend  = "XPATH_ASEND"
	settingXPathDocs   = "XPATH_DOCS"
	settingXPathMedia  = "XPATH_MEDIA"
	settingInvalidMsg  = "INVALID_MSG"
	settingMinTimer    = "MIN_TIMER"
	settingMaxTimer    = "MAX_TIMER"
)

// Workbook is the fully loaded campaign input, immutable for the run's
// duration. Contact statuses are re-read through the Store, not here.
type Workbook struct {
	Contacts  []domain.Contact
	Templates map[string]string   // message code -> encoded template
	Docs      map[string][]string // document code -> file paths
	Media     map[string][]string // media code -> file paths
	Settings  domain.RunSettings
}

// Loader reads a workbook directory.
type Loader struct {
	dir    string
	logger *slog.Logger
}

func NewLoader(dir string, logger *slog.Logger) *Loader {
	return &Loader{dir: dir, logger: logger}
}

// Load parses every sheet. Missing DOCS/MEDIA sheets are tolerated (empty
// mapping); LIST, MSGS, and SETTINGS are required.
func (l *Loader) Load() (*Workbook, error) {
	contacts, err := l.loadContacts()
	if err != nil {
		return nil, err
	}

	templates, err := l.loadTemplates()
	if err != nil {
		return nil, err
	}

	docs, err := l.loadMapping(SheetDocs, colDocCode, docFileColumns)
	if err != nil {
		return nil, err
	}
	media, err := l.loadMapping(SheetMedia, colMediaCode, mediaFileColumns)
	if err != nil {
		return nil, err
	}

	settings, err := l.loadSettings()
	if err != nil {
		return nil, err
	}

	l.logger.Info("workbook loaded",
		"dir", l.dir,
		"contacts", len(contacts),
		"templates", len(templates),
		"doc_sets", len(docs),
		"media_sets", len(media),
	)

	return &Workbook{
		Contacts:  contacts,
		Templates: templates,
		Docs:      docs,
		Media:     media,
		Settings:  settings,
	}, nil
}

func (l *Loader) loadContacts() ([]domain.Contact, error) {
	s, err := readSheet(filepath.Join(l.dir, SheetList))
	if err != nil {
		return nil, err
	}
	return parseContacts(s)
}

// parseContacts is shared with Store.Snapshot so both read the table the
// same way.
func parseContacts(s *sheet) ([]domain.Contact, error) {
	cols := make(map[string]int, 8)
	for _, name := range []string{colSender, colPhone, colName, colCourse, colMsgCode, colDocCode, colMediaCode, colStatus} {
		idx, err := s.col(name)
		if err != nil {
			return nil, err
		}
		cols[name] = idx
	}

	contacts := make([]domain.Contact, 0, len(s.rows))
	for _, row := range s.rows {
		c := domain.Contact{
			Sender:    strings.TrimSpace(s.cell(row, cols[colSender])),
			Phone:     domain.NormalizeValue(s.cell(row, cols[colPhone])),
			Name:      strings.TrimSpace(s.cell(row, cols[colName])),
			Course:    strings.TrimSpace(s.cell(row, cols[colCourse])),
			MsgCode:   domain.NormalizeValue(s.cell(row, cols[colMsgCode])),
			DocCode:   domain.NormalizeValue(s.cell(row, cols[colDocCode])),
			MediaCode: domain.NormalizeValue(s.cell(row, cols[colMediaCode])),
			Status:    domain.ParseStatus(s.cell(row, cols[colStatus])),
		}
		if c.Phone == "" {
			continue
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

func (l *Loader) loadTemplates() (map[string]string, error) {
	s, err := readSheet(filepath.Join(l.dir, SheetMsgs))
	if err != nil {
		return nil, err
	}
	codeIdx, err := s.col(colMsgCode)
	if err != nil {
		return nil, err
	}
	msgIdx, err := s.col(colMessage)
	if err != nil {
		return nil, err
	}

	templates := make(map[string]string, len(s.rows))
	for _, row := range s.rows {
		code := domain.NormalizeValue(s.cell(row, codeIdx))
		if code == "" {
			continue
		}
		templates[code] = strings.TrimSpace(s.cell(row, msgIdx))
	}
	return templates, nil
}

// loadMapping reads an attachment sheet into code -> ordered file paths,
// dropping blank cells. A missing sheet yields an empty mapping.
func (l *Loader) loadMapping(sheetName, codeCol string, fileCols []string) (map[string][]string, error) {
	path := filepath.Join(l.dir, sheetName)
	s, err := readSheet(path)
	if err != nil {
		l.logger.Warn("attachment sheet unavailable, continuing without it", "sheet", sheetName, "err", err)
		return map[string][]string{}, nil
	}

	codeIdx, err := s.col(codeCol)
	if err != nil {
		return nil, err
	}

	mapping := make(map[string][]string, len(s.rows))
	for _, row := range s.rows {
		code := domain.NormalizeValue(s.cell(row, codeIdx))
		if code == "" {
			continue
		}
		var files []string
		for _, name := range fileCols {
			idx, ok := s.columns[name]
			if !ok {
				continue
			}
			if p := strings.TrimSpace(s.cell(row, idx)); p != "" {
				files = append(files, p)
			}
		}
		mapping[code] = files
	}
	return mapping, nil
}

func (l *Loader) loadSettings() (domain.RunSettings, error) {
	s, err := readSheet(filepath.Join(l.dir, SheetSettings))
	if err != nil {
		return domain.RunSettings{}, err
	}
	nameIdx, err := s.col(colSettingName)
	if err != nil {
		return domain.RunSettings{}, err
	}
	valueIdx, err := s.col(colSettingValue)
	if err != nil {
		return domain.RunSettings{}, err
	}

	values := make(map[string]string, len(s.rows))
	for _, row := range s.rows {
		values[strings.TrimSpace(s.cell(row, nameIdx))] = strings.TrimSpace(s.cell(row, valueIdx))
	}

	settings := domain.RunSettings{
		TextBoxXPath:    values[settingXPathText],
		SendButtonXPath: values[settingXPathSend],
		AttachXPath:     values[settingXPathAttach],
		AttachSendXPath: values[settingXPathASend],
		DocsXPath:       values[settingXPathDocs],
		MediaXPath:      values[settingXPathMedia],
		InvalidMarker:   values[settingInvalidMsg],
	}

	if settings.MinDelaySec, err = parseTimer(values, settingMinTimer); err != nil {
		return domain.RunSettings{}, err
	}
	if settings.MaxDelaySec, err = parseTimer(values, settingMaxTimer); err != nil {
		return domain.RunSettings{}, err
	}

	if err := settings.Validate(); err != nil {
		return domain.RunSettings{}, fmt.Errorf("settings sheet: %w", err)
	}
	return settings, nil
}

func parseTimer(values map[string]string, name string) (float64, error) {
	raw, ok := values[name]
	if !ok {
		return 0, fmt.Errorf("settings sheet is missing %s", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("setting %s: %w", name, err)
	}
	return v, nil
}
