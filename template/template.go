// Package template renders the campaign subject and body by literal
// placeholder substitution and parses optional campaign template files.
package template

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/theidealshukla/ColdMailBot-api/models"
)

// Vars holds the values substituted into a template.
type Vars struct {
	HRName      string
	Company     string
	SenderName  string
	SenderEmail string
}

const defaultDelaySeconds = 3

const defaultSubject = "Frontend Internship Application – {company}"

const defaultBody = `Dear {hr_name},

I hope this email finds you well. I am writing to express my strong interest in frontend development internship opportunities at {company}.

As a passionate frontend developer with experience in modern web technologies including React, JavaScript, HTML5, and CSS3, I am excited about the possibility of contributing to {company}'s innovative projects while further developing my skills in a professional environment.

Key highlights of my background:
• Proficient in React, JavaScript (ES6+), HTML5, and CSS3
• Experience with responsive design and modern CSS frameworks
• Familiarity with version control (Git) and development tools
• Strong problem-solving skills and attention to detail
• Eager to learn and adapt to new technologies

I have attached my resume for your review, which provides more detailed information about my projects and technical skills. I would greatly appreciate the opportunity to discuss how I can contribute to {company}'s frontend development team.

Thank you for considering my application. I look forward to hearing from you and would be happy to provide any additional information you may need.

Best regards,
{sender_name}
{sender_email}

---
This email was sent as part of my internship application process. I apologize if this is not the appropriate contact for internship inquiries and would appreciate being directed to the correct department if needed.`

// Render substitutes the supported placeholder tokens into tmpl. Each token
// is replaced at most once: a template repeating the same placeholder keeps
// the later occurrences verbatim, matching the behavior campaigns were
// written against. Unrecognized placeholders are left untouched.
func Render(tmpl string, vars Vars) string {
	out := strings.Replace(tmpl, "{hr_name}", vars.HRName, 1)
	out = strings.Replace(out, "{company}", vars.Company, 1)
	out = strings.Replace(out, "{sender_name}", vars.SenderName, 1)
	out = strings.Replace(out, "{sender_email}", vars.SenderEmail, 1)
	return out
}

// Default returns the built-in campaign template. A campaign never fails for
// lack of template content; anything missing falls back to these values.
func Default() models.Template {
	return models.Template{
		Subject:      defaultSubject,
		Body:         defaultBody,
		DelaySeconds: defaultDelaySeconds,
	}
}

// ParseFile reads an uploaded campaign template document. The format is a
// plain text file with optional "Sender Name:" and "Delay:" fields and two
// fenced blocks introduced by "## Subject" and "## Body" headings:
//
//	Sender Name: Jane Doe
//	Delay: 5
//
//	## Subject
//	```
//	Application – {company}
//	```
//
//	## Body
//	```
//	Dear {hr_name}, ...
//	```
//
// Every missing or malformed piece keeps the value from base, so parsing
// only fails when the reader itself does.
func ParseFile(r io.Reader, base models.Template) (models.Template, error) {
	tmpl := base

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		section string // "subject" or "body" after the matching heading
		fenced  bool
		block   []string
	)

	flush := func() {
		text := strings.TrimRight(strings.Join(block, "\n"), "\n")
		if text != "" {
			switch section {
			case "subject":
				tmpl.Subject = text
			case "body":
				tmpl.Body = text
			}
		}
		section = ""
		block = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if fenced {
			if strings.HasPrefix(trimmed, "```") {
				fenced = false
				flush()
				continue
			}
			block = append(block, line)
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "```"):
			if section != "" {
				fenced = true
			}
		case strings.HasPrefix(trimmed, "#"):
			heading := strings.ToLower(strings.TrimSpace(strings.TrimLeft(trimmed, "#")))
			switch {
			case strings.HasPrefix(heading, "subject"):
				section = "subject"
			case strings.HasPrefix(heading, "body"):
				section = "body"
			default:
				section = ""
			}
		case hasField(trimmed, "sender name"), hasField(trimmed, "sender_name"):
			if v := fieldValue(trimmed); v != "" {
				tmpl.SenderName = v
			}
		case hasField(trimmed, "delay"), hasField(trimmed, "delay_seconds"):
			if n, err := strconv.Atoi(fieldValue(trimmed)); err == nil && n >= 0 {
				tmpl.DelaySeconds = n
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return base, err
	}

	return tmpl, nil
}

func hasField(line, name string) bool {
	return strings.HasPrefix(strings.ToLower(line), name+":")
}

func fieldValue(line string) string {
	_, value, found := strings.Cut(line, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(value)
}
