package ledger

import "schoolledger/internal/core"

// DueReport nests due fee records by organization, class and student, in
// the order they first appear. Fully paid records are skipped.
func DueReport(records []core.FeeCollection) core.DueReport {
	type class struct {
		name     string
		students *ordered[string, core.StudentDue]
		amounts  core.DueAmounts
	}
	type org struct {
		name    string
		classes *ordered[string, class]
		amounts core.DueAmounts
	}

	orgs := newOrdered[string, org]()
	var grand core.DueAmounts

	for _, r := range records {
		if !r.IsDue() {
			continue
		}
		o := orgs.at(r.Organization, func() org {
			return org{name: r.Organization, classes: newOrdered[string, class]()}
		})
		c := o.classes.at(r.ClassName, func() class {
			return class{name: r.ClassName, students: newOrdered[string, core.StudentDue]()}
		})
		st := c.students.at(r.StudentID, func() core.StudentDue {
			return core.StudentDue{StudentID: r.StudentID, StudentName: r.StudentName}
		})

		st.Add(r.Total, r.Paid)
		c.amounts.Add(r.Total, r.Paid)
		o.amounts.Add(r.Total, r.Paid)
		grand.Add(r.Total, r.Paid)
	}

	report := core.DueReport{
		Organizations: make([]core.OrganizationDue, 0, orgs.len()),
		DueAmounts:    grand,
	}
	orgs.each(func(_ string, o *org) {
		od := core.OrganizationDue{
			Organization: o.name,
			Classes:      make([]core.ClassDue, 0, o.classes.len()),
			DueAmounts:   o.amounts,
		}
		o.classes.each(func(_ string, c *class) {
			cd := core.ClassDue{
				ClassName:  c.name,
				Students:   make([]core.StudentDue, 0, c.students.len()),
				DueAmounts: c.amounts,
			}
			c.students.each(func(_ string, s *core.StudentDue) {
				cd.Students = append(cd.Students, *s)
			})
			od.Classes = append(od.Classes, cd)
		})
		report.Organizations = append(report.Organizations, od)
	})
	return report
}
